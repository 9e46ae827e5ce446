package model

// Defaults substituted when a profile column is null or missing.
const (
	DefaultLanguage           = "en"
	DefaultTemperatureUnit    = "C"
	DefaultReminderTime       = "07:00"
	DefaultWeatherSensitivity = "normal"
	DefaultNotify             = true
)

// SystemSettingsColumns are the user_profiles columns behind SystemSettings.
var SystemSettingsColumns = []string{
	"language",
	"temperature_unit",
	"default_reminder_time",
	"weather_sensitivity",
	"notify_weather",
	"notify_outfit_reminders",
}

// SystemSettings are the per-user app preferences.
type SystemSettings struct {
	Language              string `json:"language"`
	TemperatureUnit       string `json:"temperatureUnit"`
	DefaultReminderTime   string `json:"defaultReminderTime"`
	WeatherSensitivity    string `json:"weatherSensitivity"`
	NotifyWeather         bool   `json:"notifyWeather"`
	NotifyOutfitReminders bool   `json:"notifyOutfitReminders"`
}

// Profile is the settings view of a user_profiles row.
type Profile struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
	SystemSettings
}

// ProfileRow is the user_profiles insert made at sign-up.
type ProfileRow struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

func stringOr(row Fields, key, def string) string {
	if s := row.String(key); s != nil {
		return *s
	}
	return def
}

// SystemSettingsFromRow maps a profile row, substituting defaults.
func SystemSettingsFromRow(row Fields) SystemSettings {
	return SystemSettings{
		Language:              stringOr(row, "language", DefaultLanguage),
		TemperatureUnit:       stringOr(row, "temperature_unit", DefaultTemperatureUnit),
		DefaultReminderTime:   stringOr(row, "default_reminder_time", DefaultReminderTime),
		WeatherSensitivity:    stringOr(row, "weather_sensitivity", DefaultWeatherSensitivity),
		NotifyWeather:         row.Bool("notify_weather", DefaultNotify),
		NotifyOutfitReminders: row.Bool("notify_outfit_reminders", DefaultNotify),
	}
}

// ProfileFromRow maps a profile row, substituting defaults for settings.
func ProfileFromRow(row Fields) Profile {
	return Profile{
		FirstName:      row.String("first_name"),
		LastName:       row.String("last_name"),
		PhoneNumber:    row.String("phone_number"),
		Email:          row.String("email"),
		SystemSettings: SystemSettingsFromRow(row),
	}
}

// ProfilePatch builds a sparse update of the personal fields plus updated_at.
// The password, if any, is not part of the row.
func ProfilePatch(in Fields) map[string]any {
	patch := map[string]any{"updated_at": ServerNow}

	for _, m := range []struct{ from, to string }{
		{"firstName", "first_name"},
		{"lastName", "last_name"},
		{"phoneNumber", "phone_number"},
		{"email", "email"},
	} {
		if in.Has(m.from) {
			patch[m.to] = in.String(m.from)
		}
	}
	return patch
}

// SystemSettingsPatch builds the full system settings update. Every setting
// must be present; there is no partial update.
func SystemSettingsPatch(in Fields) (map[string]any, error) {
	patch := map[string]any{"updated_at": ServerNow}

	for _, m := range []struct{ from, to string }{
		{"language", "language"},
		{"temperatureUnit", "temperature_unit"},
		{"defaultReminderTime", "default_reminder_time"},
		{"weatherSensitivity", "weather_sensitivity"},
	} {
		v, err := in.RequireString(m.from)
		if err != nil {
			return nil, err
		}
		patch[m.to] = v
	}

	for _, m := range []struct{ from, to string }{
		{"notifyWeather", "notify_weather"},
		{"notifyOutfitReminders", "notify_outfit_reminders"},
	} {
		v, err := in.RequireBool(m.from)
		if err != nil {
			return nil, err
		}
		patch[m.to] = v
	}

	return patch, nil
}

// NewPassword returns the password carried by a profile update, if non-empty.
func NewPassword(in Fields) (string, bool) {
	p := in.String("password")
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}
