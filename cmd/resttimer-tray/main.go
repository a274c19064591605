package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	log := logger.New(logger.ParseLevel(*logLevel), appName+"-tray")

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

	path := *settingsPath
	if path == "" {
		if path, err = storage.DefaultPath(appName); err != nil {
			log.Error("settings: %v", err)
			return
		}
	}
	store := storage.NewStore(path)
	settings, err := store.Load()
	if err != nil {
		log.Warn("load settings, using defaults: %v", err)
	}
	if !store.Exists() {
		settings.Language = platform.DetectLanguage(catalog, model.DefaultLanguage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var native *tray.Native
	native = tray.NewNative(catalog, iconBytes, func() { native.Quit() })
	presenter := notification.NewPresenter(native, catalog)
	eng := engine.New(channel, presenter, settings, engine.Options{
		TickInterval:     *tick,
		CooldownDuration: 3 * *tick,
		Logger:           log.WithPrefix("engine"),
	})
	presenter.OnAction(eng.HandleAction)

	go func() {
		<-ctx.Done()
		native.Quit()
	}()

	native.Run(func() {
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
			})
			if err != nil {
				log.Warn("settings watcher: %v", err)
			}
		}()
		if *broker != "" {
			startBridge(ctx, *broker, *instance, channel, log)
		}
		if err := eng.Start(ctx); err != nil {
			log.Error("timer service: %v", err)
			native.Quit()
		}
	})

	stop()
	eng.Shutdown()
}

func iconBytes(kind string) []byte {
	icon, err := resources.Icon(kind)
	if err != nil {
		return nil
	}
	return icon.Content()
}

func startBridge(ctx context.Context, broker, instance string, channel *link.Channel, log *logger.Logger) {
	if instance == "" {
		instance = remote.NewInstanceID()
	}
	client, err := remote.Dial(broker, appName+"-tray-"+instance, log.WithPrefix("mqtt"))
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
