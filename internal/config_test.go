package internal

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestFlexSeconds_NumberAndString(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want FlexSeconds
	}{
		{"number", "refresh_rate: 600", 600},
		{"string", `refresh_rate: "900"`, 900},
		{"zero", "refresh_rate: 0", 0},
		{"empty string", `refresh_rate: ""`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg struct {
				RefreshRate FlexSeconds `yaml:"refresh_rate"`
			}
			if err := yaml.Unmarshal([]byte(tc.doc), &cfg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if cfg.RefreshRate != tc.want {
				t.Errorf("RefreshRate = %d, want %d", cfg.RefreshRate, tc.want)
			}
		})
	}
}

func TestFlexSeconds_Invalid(t *testing.T) {
	for _, doc := range []string{
		`refresh_rate: "not a number"`,
		"refresh_rate: -5",
		"refresh_rate: [600]",
	} {
		var cfg struct {
			RefreshRate FlexSeconds `yaml:"refresh_rate"`
		}
		if err := yaml.Unmarshal([]byte(doc), &cfg); err == nil {
			t.Errorf("unmarshal %q succeeded, want error", doc)
		}
	}
}

func TestRefreshInterval_Floor(t *testing.T) {
	cfg := Config{RefreshRate: 10}
	if got := cfg.RefreshInterval(); got != 300*time.Second {
		t.Errorf("interval for rate 10 = %v, want 300s", got)
	}
}

func TestRefreshInterval_AboveFloorKept(t *testing.T) {
	cfg := Config{RefreshRate: 900}
	if got := cfg.RefreshInterval(); got != 900*time.Second {
		t.Errorf("interval = %v, want 900s", got)
	}
}

func TestRefreshInterval_UnsetUsesDefault(t *testing.T) {
	cfg := Config{}
	if got := cfg.RefreshInterval(); got != DefaultRefreshSeconds*time.Second {
		t.Errorf("interval = %v, want %ds", got, DefaultRefreshSeconds)
	}
}

func TestPluginConfig_DisabledSkipsValidation(t *testing.T) {
	cfg := PluginConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled plugin should validate: %v", err)
	}
}

func TestPluginConfig_EnabledNeedsWebhookAndFields(t *testing.T) {
	cfg := PluginConfig{Enabled: true, SearchQuery: "deck:vocab"}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled plugin without webhook should fail validation")
	}

	cfg = PluginConfig{
		Enabled:       true,
		SearchQuery:   "deck:vocab",
		VisibleFields: []string{"Word"},
		Webhook:       "not a url",
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "webhook") {
		t.Errorf("bad webhook URL validated: %v", err)
	}

	cfg.Webhook = "https://usetrmnl.com/api/custom_plugins/abc123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid plugin failed validation: %v", err)
	}
}

func TestConfig_ValidateNamesBrokenPlugin(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Plugins = []PluginConfig{
		{Enabled: true, VisibleFields: []string{"Word"}, Webhook: "https://example.com/hook"},
		{Enabled: true},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "plugin 1") {
		t.Errorf("err = %v, want mention of plugin 1", err)
	}
}

func TestSnapshot_CopiesPlugins(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.RefreshRate = 10
	cfg.Plugins = []PluginConfig{{
		Enabled:       true,
		SearchQuery:   "deck:vocab",
		VisibleFields: []string{"Word", "Meaning"},
		Webhook:       "https://example.com/hook",
	}}

	snap := Snapshot(cfg)

	if snap.Interval != 300*time.Second {
		t.Errorf("snapshot interval = %v, want clamped 300s", snap.Interval)
	}
	if len(snap.Plugins) != 1 || snap.Plugins[0].SearchQuery != "deck:vocab" {
		t.Fatalf("snapshot plugins = %+v", snap.Plugins)
	}

	// Mutating the source config must not reach the snapshot.
	cfg.Plugins[0].VisibleFields[0] = "changed"
	if snap.Plugins[0].VisibleFields[0] != "Word" {
		t.Error("snapshot shares visible_fields slice with config")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("token mode without token should fail")
	}
}
