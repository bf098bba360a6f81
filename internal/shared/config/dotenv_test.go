package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# comment\n" +
		"PLAIN_KEY=plain\n" +
		"export EXPORTED_KEY=exported\n" +
		"QUOTED_KEY=\"quoted value\"\n" +
		"SINGLE_KEY='single'\n" +
		"ALREADY_SET=from-file\n" +
		"malformed line\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	for _, key := range []string{"PLAIN_KEY", "EXPORTED_KEY", "QUOTED_KEY", "SINGLE_KEY"} {
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	t.Setenv("ALREADY_SET", "from-env")

	loadEnvFiles(filepath.Join(dir, "missing.env"), envFile)

	want := map[string]string{
		"PLAIN_KEY":    "plain",
		"EXPORTED_KEY": "exported",
		"QUOTED_KEY":   "quoted value",
		"SINGLE_KEY":   "single",
		"ALREADY_SET":  "from-env",
	}
	for key, val := range want {
		if got := os.Getenv(key); got != val {
			t.Errorf("%s = %q, want %q", key, got, val)
		}
	}
}
