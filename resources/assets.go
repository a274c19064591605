package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
)

const iconDir = "icons/"

//go:embed icons/*.svg
var iconFS embed.FS

var iconCache sync.Map

// Icon returns the tray icon for a notification kind ("ready", "running",
// "paused" or "finished").
func Icon(kind string) (fyne.Resource, error) {
	path := iconDir + kind + ".svg"
	if cached, ok := iconCache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := iconFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(kind+".svg", data)
	iconCache.Store(path, resource)
	return resource, nil
}

// MustIcon returns an icon or panics on error.
func MustIcon(kind string) fyne.Resource {
	resource, err := Icon(kind)
	if err != nil {
		panic(err)
	}
	return resource
}
