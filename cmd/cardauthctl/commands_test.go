package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "cardauth/internal/jwt_token"
	"cardauth/internal/simulation"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPolicyValidate(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		out, err := run(t, "policy", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "from embedded is valid")
		assert.Contains(t, out, "£25.00")
		assert.Contains(t, out, "£500.00")
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: bad\nlimits:\n  - period: weekly\n    max_amount: 10\n"), 0o600))

		_, err := run(t, "policy", "validate", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestScenarios(t *testing.T) {
	out, err := run(t, "scenarios")
	require.NoError(t, err)
	for _, key := range simulation.Keys() {
		assert.Contains(t, out, key)
	}
}

func TestSimulate(t *testing.T) {
	t.Run("catalogue matches under the default policy", func(t *testing.T) {
		out, err := run(t, "simulate", "--strict")
		require.NoError(t, err)
		total := len(simulation.Keys())
		assert.Contains(t, out, fmt.Sprintf("%d/%d scenarios matched", total, total))
	})

	t.Run("json output for one scenario", func(t *testing.T) {
		out, err := run(t, "simulate", "--json", "gas-station-blocked")
		require.NoError(t, err)

		var results []simulateOutput
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "gas-station-blocked", results[0].Scenario)
		assert.True(t, results[0].Matches)
		assert.Equal(t, "merchant blocked", results[0].Reason)
		assert.Zero(t, results[0].ApprovedAmount)
	})

	t.Run("strict fails on a looser policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "loose.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: loose\nversion: \"9\"\n"), 0o600))

		out, err := run(t, "simulate", "--strict", "--policy", path, "gas-station-blocked")
		require.Error(t, err)
		assert.Contains(t, out, "approved !")
	})

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := run(t, "simulate", "nope")
		require.Error(t, err)
	})
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-signing-key")

	out, err := run(t, "token", "--subject", "ops@example.com")
	require.NoError(t, err)

	svc := jwttoken.NewJWTService("cli-test-signing-key", "cardauth", "cardauth-admin")
	subject, err := svc.ValidateAdmin(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", subject)

	_, err = run(t, "token")
	require.Error(t, err, "subject is required")
}
