package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSystemSettingsDefaults(t *testing.T) {
	rows, _ := DecodeRows([]byte(`[{"language": null, "notify_weather": null}]`))

	got := SystemSettingsFromRow(rows[0])
	want := SystemSettings{
		Language:              "en",
		TemperatureUnit:       "C",
		DefaultReminderTime:   "07:00",
		WeatherSensitivity:    "normal",
		NotifyWeather:         true,
		NotifyOutfitReminders: true,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestProfileFromRow(t *testing.T) {
	rows, _ := DecodeRows([]byte(`[{
		"first_name": "Ana", "last_name": "Novak", "email": "ana@example.com",
		"language": "fr", "temperature_unit": "F", "notify_outfit_reminders": false
	}]`))

	p := ProfileFromRow(rows[0])
	if p.Language != "fr" {
		t.Errorf("expected stored language 'fr', got %q", p.Language)
	}
	if p.TemperatureUnit != "F" || p.NotifyOutfitReminders {
		t.Errorf("expected stored settings to win over defaults, got %+v", p.SystemSettings)
	}
	if p.PhoneNumber != nil {
		t.Errorf("expected null phone number, got %q", *p.PhoneNumber)
	}

	data, _ := json.Marshal(p)
	var flat map[string]any
	json.Unmarshal(data, &flat)
	for _, key := range []string{"firstName", "lastName", "phoneNumber", "email", "language", "temperatureUnit", "defaultReminderTime", "weatherSensitivity", "notifyWeather", "notifyOutfitReminders"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
}

func TestProfilePatch(t *testing.T) {
	patch := ProfilePatch(mustFields(t, `{"firstName":"Ana","password":"hunter22"}`))

	if len(patch) != 2 {
		t.Errorf("expected first_name and updated_at only, got %v", patch)
	}
	if _, ok := patch["password"]; ok {
		t.Error("password must not be written to the profile row")
	}

	if p, ok := NewPassword(mustFields(t, `{"password":"hunter22"}`)); !ok || p != "hunter22" {
		t.Errorf("expected password, got %q %v", p, ok)
	}
	if _, ok := NewPassword(mustFields(t, `{"password":""}`)); ok {
		t.Error("expected empty password to be ignored")
	}
}

func TestSystemSettingsPatch(t *testing.T) {
	full := `{"language":"sl","temperatureUnit":"C","defaultReminderTime":"08:30","weatherSensitivity":"high","notifyWeather":false,"notifyOutfitReminders":true}`

	patch, err := SystemSettingsPatch(mustFields(t, full))
	if err != nil {
		t.Fatalf("SystemSettingsPatch: %v", err)
	}
	if patch["default_reminder_time"] != "08:30" || patch["notify_weather"] != false {
		t.Errorf("unexpected patch %v", patch)
	}

	missing := `{"language":"sl","temperatureUnit":"C","defaultReminderTime":"08:30","weatherSensitivity":"high","notifyWeather":false}`
	_, err = SystemSettingsPatch(mustFields(t, missing))
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "notifyOutfitReminders" {
		t.Errorf("expected missing notifyOutfitReminders, got %v", err)
	}
}
