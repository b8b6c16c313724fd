package config

import "testing"

func setRequired(t *testing.T) {
	t.Setenv("KONE_CLIENT_ID", "client")
	t.Setenv("KONE_CLIENT_SECRET", "secret")
	t.Setenv("KONE_BUILDING_ID", "building:1")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("KONE_TOKEN_ENDPOINT", "")
	t.Setenv("KONE_GROUP_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TokenEndpoint == "" {
		t.Error("TokenEndpoint default not applied")
	}
	if cfg.GroupID != "1" {
		t.Errorf("GroupID = %q, want default 1", cfg.GroupID)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("KONE_CLIENT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load succeeded without client secret")
	}
}
