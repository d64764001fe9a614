package app

import "github.com/gen2brain/beeep"

// AppName is shown as the source of desktop notifications.
const AppName = "Daily Prayer Notification"

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(title, message string, sound bool) error
}

// DesktopNotifier raises OS toast notifications. Alert includes the system
// sound; Notify is silent.
type DesktopNotifier struct{}

// NewDesktopNotifier registers the application name with beeep.
func NewDesktopNotifier() DesktopNotifier {
	beeep.AppName = AppName
	return DesktopNotifier{}
}

func (DesktopNotifier) Notify(title, message string, sound bool) error {
	if sound {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}
