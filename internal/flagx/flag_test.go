package flagx

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	serverFlags := []string{"-a", "-d", "-l"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate values", []string{"-a", ":3001", "-d", "postgres://db"}, []string{"-a", ":3001", "-d", "postgres://db"}},
		{"equals form", []string{"-a=:8080", "-jwt-secret=s"}, []string{"-a=:8080"}},
		{"foreign flags dropped", []string{"-c", "userhub.yaml", "-a", ":3001", "-v"}, []string{"-a", ":3001"}},
		{"missing trailing value", []string{"-l"}, []string{"-l"}},
		{"next flag is not a value", []string{"-a", "-l", "debug"}, []string{"-a", "-l", "debug"}},
		{"equals value may start with dash", []string{"-d=-weird"}, []string{"-d=-weird"}},
		{"repeats keep order", []string{"-l", "info", "-l", "debug"}, []string{"-l", "info", "-l", "debug"}},
		{"positional ignored", []string{"serve", "extra"}, []string{}},
		{"nil args", nil, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterArgs(tc.args, serverFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", ConfigFileFlag(""))
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.yaml"}
		assert.Equal(t, "/path/long.yaml", ConfigFileFlag(""))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, ConfigFileFlag(""))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", ConfigFileFlag(""))
	})

	t.Run("env fallback", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("USERHUB_CONFIG", "/etc/userhub.yaml")
		assert.Equal(t, "/etc/userhub.yaml", ConfigFileFlag("USERHUB_CONFIG"))
	})

	t.Run("flag beats env", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/flag.json"}
		t.Setenv("USERHUB_CONFIG", "/etc/userhub.yaml")
		assert.Equal(t, "/path/flag.json", ConfigFileFlag("USERHUB_CONFIG"))
	})
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("FX_STR", "value")
	t.Setenv("FX_INT", "42")
	t.Setenv("FX_BAD_INT", "forty")
	t.Setenv("FX_BOOL", "true")
	t.Setenv("FX_DUR", "90s")
	t.Setenv("FX_SEC_SECONDS", "5")

	assert.Equal(t, "value", Getenv("FX_STR", "x"))
	assert.Equal(t, "x", Getenv("FX_MISSING", "x"))
	assert.Equal(t, 42, GetenvInt("FX_INT", 1))
	assert.Equal(t, 1, GetenvInt("FX_BAD_INT", 1))
	assert.True(t, GetenvBool("FX_BOOL", false))
	assert.Equal(t, 90*time.Second, GetenvDuration("FX_DUR", time.Minute))
	assert.Equal(t, 5*time.Second, GetenvDuration("FX_SEC", time.Minute))
	assert.Equal(t, time.Minute, GetenvDuration("FX_NONE", time.Minute))
}
