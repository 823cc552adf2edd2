// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	// Required numeric thresholds; the API refuses to start without them.
	for _, name := range []string{
		"DOOR_THRESHOLD_SECONDS",
		"RADAR_THRESHOLD_SECONDS",
		"SUBSEQUENT_VITALS_ALERT_THRESHOLD",
		"LOW_BATTERY_ALERT_TIMEOUT",
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			fail(name + " is empty (the API will not start).")
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			fail(name + "=" + v + " is not a non-negative integer.")
		}
		ok(name + "=" + v)
	}

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + addr)
	}

	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if db == "" {
		warn("DATABASE_URL empty — API will use the in-memory store; alert state is lost on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	sms := strings.TrimSpace(os.Getenv("SMS_GATEWAY_URL"))
	if sms == "" {
		warn("SMS_GATEWAY_URL empty — alerts will be logged but never delivered.")
	} else {
		ok("SMS_GATEWAY_URL=" + sms)
	}

	ok("preflight passed")
}
