package preferences

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"resttimer/internal/core/model"
	"resttimer/internal/notification"
)

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	translator notification.Translator
	settings   model.Settings
	onSave     func(model.Settings)

	title     *widget.Label
	duration  *widget.Entry
	language  *widget.Select
	sound     *widget.Check
	vibration *widget.Check
	volume    *widget.Slider
	labels    map[string]*widget.Label
	save      *widget.Button
	cancel    *widget.Button
}

// New creates a preferences window.
func New(app fyne.App, translator notification.Translator, languages []string, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow("")

	prefs := &Window{
		window:     window,
		translator: translator,
		settings:   settings,
		onSave:     onSave,
		title:      widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		duration:   widget.NewEntry(),
		language:   widget.NewSelect(languages, nil),
		sound:      widget.NewCheck("", nil),
		vibration:  widget.NewCheck("", nil),
		volume:     widget.NewSlider(0, 1),
		labels: map[string]*widget.Label{
			"SettingsDuration": widget.NewLabel(""),
			"SettingsLanguage": widget.NewLabel(""),
			"SettingsVolume":   widget.NewLabel(""),
		},
		save:   widget.NewButton("", nil),
		cancel: widget.NewButton("", nil),
	}
	prefs.volume.Step = 0.05

	form := container.NewVBox(
		prefs.title,
		prefs.labels["SettingsDuration"],
		prefs.duration,
		prefs.labels["SettingsLanguage"],
		prefs.language,
		prefs.sound,
		prefs.vibration,
		prefs.labels["SettingsVolume"],
		prefs.volume,
	)
	buttons := container.NewHBox(prefs.save, layout.NewSpacer(), prefs.cancel)
	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(360, 380))
	window.SetCloseIntercept(window.Hide)

	prefs.save.OnTapped = prefs.handleSave
	prefs.cancel.OnTapped = func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	}

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values and relabels for the language.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	form := FormFromSettings(settings)
	prefs.duration.SetText(form.Duration)
	prefs.language.SetSelected(form.Language)
	prefs.sound.SetChecked(form.Sound)
	prefs.vibration.SetChecked(form.Vibration)
	prefs.volume.SetValue(form.Volume)
	prefs.relabel(settings.Language)
}

func (prefs *Window) relabel(lang string) {
	text := func(id string) string {
		return prefs.translator.Text(lang, id, nil)
	}
	prefs.window.SetTitle(text("SettingsTitle"))
	prefs.title.SetText(text("SettingsTitle"))
	for id, label := range prefs.labels {
		label.SetText(text(id))
	}
	prefs.sound.Text = text("SettingsSound")
	prefs.sound.Refresh()
	prefs.vibration.Text = text("SettingsVibration")
	prefs.vibration.Refresh()
	prefs.save.SetText(text("SettingsSave"))
	prefs.cancel.SetText(text("SettingsCancel"))
}

func (prefs *Window) handleSave() {
	form := Form{
		Duration:  prefs.duration.Text,
		Language:  prefs.language.Selected,
		Sound:     prefs.sound.Checked,
		Vibration: prefs.vibration.Checked,
		Volume:    prefs.volume.Value,
	}
	settings := form.Apply(prefs.settings)

	prefs.UpdateSettings(settings)
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}
