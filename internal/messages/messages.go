// Package messages holds the outbound alert texts, keyed by the owning
// client's preferred language. Unknown languages fall back to English.
package messages

import "fmt"

type Key string

const (
	DisconnectionInitial  Key = "sensorDisconnectionInitial"
	DisconnectionReminder Key = "sensorDisconnectionReminder"
	Reconnection          Key = "sensorReconnection"
	LowBatteryInitial     Key = "sensorLowBatteryInitial"
	SirenFallback         Key = "sirenFallback"
)

// Templates take the location display name first and the location id second.
var catalog = map[string]map[Key]string{
	"en": {
		DisconnectionInitial:  "The sensor at %[1]s (%[2]s) has stopped sending heartbeats. Please make sure it is plugged in and connected.",
		DisconnectionReminder: "Reminder: the sensor at %[1]s (%[2]s) is still not sending heartbeats.",
		Reconnection:          "The sensor at %[1]s (%[2]s) has reconnected.",
		LowBatteryInitial:     "The door sensor battery at %[1]s is low. Please replace it soon.",
		SirenFallback:         "There is an unresponded siren. Please check on %[1]s.",
	},
	"es": {
		DisconnectionInitial:  "El sensor en %[1]s (%[2]s) dejó de enviar señales. Por favor verifique que esté conectado.",
		DisconnectionReminder: "Recordatorio: el sensor en %[1]s (%[2]s) sigue sin enviar señales.",
		Reconnection:          "El sensor en %[1]s (%[2]s) se ha reconectado.",
		LowBatteryInitial:     "La batería del sensor de puerta en %[1]s está baja. Por favor reemplácela pronto.",
		SirenFallback:         "Hay una sirena sin respuesta. Por favor revise %[1]s.",
	},
}

func Render(key Key, language, displayName, locationID string) string {
	langCatalog, ok := catalog[language]
	if !ok {
		langCatalog = catalog["en"]
	}
	tmpl, ok := langCatalog[key]
	if !ok {
		tmpl = catalog["en"][key]
	}
	return fmt.Sprintf(tmpl, displayName, locationID)
}
