package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"resttimer/internal/core/engine"
	"resttimer/internal/core/link"
	"resttimer/internal/core/model"
	"resttimer/internal/core/observer"
	"resttimer/internal/feedback"
	"resttimer/internal/i18n"
	"resttimer/internal/logger"
	"resttimer/internal/notification"
	"resttimer/internal/platform"
	"resttimer/internal/remote"
	"resttimer/internal/storage"
	"resttimer/internal/ui/preferences"
	"resttimer/internal/ui/timerview"
	"resttimer/internal/ui/tray"
	"resttimer/resources"
)

const appName = "resttimer"

func main() {
	var (
		logLevel     = flag.String("log", "info", "log level: debug, info, warn, error")
		tick         = flag.Duration("tick", time.Second, "countdown tick interval")
		settingsPath = flag.String("settings", "", "settings file (default: user config dir)")
		broker       = flag.String("broker", "", "MQTT broker URL, empty disables the remote bridge")
		instance     = flag.String("instance", "", "MQTT topic instance name (default: random)")
		noSound      = flag.Bool("no-sound", false, "never play the completion chime")
	)
	flag.Parse()

	log := logger.New(logger.ParseLevel(*logLevel), appName)

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Info("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	catalog, err := i18n.NewCatalog()
	if err != nil {
		log.Error("load translations: %v", err)
		return
	}

	store, err := openStore(*settingsPath)
	if err != nil {
		log.Error("settings: %v", err)
		return
	}
	settings, err := store.Load()
	if err != nil {
		log.Warn("load settings, using defaults: %v", err)
	}
	if !store.Exists() {
		settings.Language = platform.DetectLanguage(catalog, model.DefaultLanguage)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := link.New(link.DefaultCommandBuffer)
	defer channel.Close()

	var cue observer.Feedback = feedback.NewPlayer(log.WithPrefix("feedback"))
	if *noSound {
		cue = feedback.Noop{}
	}
	obs := observer.New(channel, settings, cue, observer.Options{
		CooldownFallback: 3 * *tick,
		Logger:           log.WithPrefix("observer"),
	})

	fyneApp := app.NewWithID("com.resttimer.app")
	fyneApp.SetIcon(resources.MustIcon("ready"))

	var (
		timerWindow *timerview.Window
		prefsWindow *preferences.Window
	)
	trayManager := tray.New(fyneApp, catalog, tray.Callbacks{
		OnShow:        func() { timerWindow.Show() },
		OnPreferences: func() { prefsWindow.Show() },
		OnQuit:        fyneApp.Quit,
	})
	presenter := notification.NewPresenter(trayManager, catalog)
	eng := engine.New(channel, presenter, settings, engine.Options{
		TickInterval:     *tick,
		CooldownDuration: 3 * *tick,
		Logger:           log.WithPrefix("engine"),
	})
	presenter.OnAction(eng.HandleAction)

	startEngine := func() {
		err := eng.Start(ctx)
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return
		}
		obs.ReportError(err)
	}

	prefsWindow = preferences.New(fyneApp, catalog, catalog.Languages(), settings, func(updated model.Settings) {
		go func() {
			if err := store.Save(updated); err != nil {
				log.Warn("save settings: %v", err)
			}
			if err := obs.UpdateSettings(ctx, updated); err != nil {
				log.Warn("apply settings: %v", err)
			}
		}()
	})
	timerWindow = timerview.New(fyneApp, obs, catalog, timerview.Callbacks{
		OnSettings: func() { prefsWindow.Show() },
		OnRetry:    func() { go startEngine() },
	}, log.WithPrefix("ui"))
	timerWindow.Follow(obs.Subscribe(16))

	go func() {
		if err := obs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("observer stopped: %v", err)
		}
	}()
	go func() {
		err := store.Watch(ctx, log.WithPrefix("settings"), func(updated model.Settings) {
			if err := obs.UpdateSettings(ctx, updated); err != nil {
				log.Warn("apply settings: %v", err)
			}
			fyne.Do(func() { prefsWindow.UpdateSettings(updated) })
		})
		if err != nil {
			log.Warn("settings watcher: %v", err)
		}
	}()

	if *broker != "" {
		startBridge(ctx, *broker, *instance, channel, log)
	}

	guard.Serve(func() {
		fyne.Do(timerWindow.Show)
	})
	fyneApp.Lifecycle().SetOnStarted(func() {
		go startEngine()
	})

	timerWindow.Show()
	fyneApp.Run()

	cancel()
	eng.Shutdown()
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		var err error
		path, err = storage.DefaultPath(appName)
		if err != nil {
			return nil, err
		}
	}
	return storage.NewStore(path), nil
}

func startBridge(ctx context.Context, broker, instance string, channel *link.Channel, log *logger.Logger) {
	if instance == "" {
		instance = remote.NewInstanceID()
	}
	client, err := remote.Dial(broker, appName+"-"+instance, log.WithPrefix("mqtt"))
	if err != nil {
		log.Warn("remote bridge disabled: %v", err)
		return
	}
	bridge := remote.NewBridge(client, channel, remote.Config{
		Instance: instance,
		Logger:   log.WithPrefix("remote"),
	})
	go func() {
		if err := bridge.Run(ctx); err != nil {
			log.Warn("remote bridge stopped: %v", err)
		}
	}()
}
