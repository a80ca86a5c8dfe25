package remotecmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Chain Tests
// =============================================================================

func TestChain_Always(t *testing.T) {
	out := Chain([][]string{{"pkill", "nginx"}, {"service", "nginx", "start"}}, OpAlways)
	assert.Equal(t, []string{"pkill", "nginx", ";", "service", "nginx", "start"}, out)
}

func TestChain_AndThen(t *testing.T) {
	out := Chain([][]string{{"a"}, {"b"}, {"c"}}, OpAndThen)
	assert.Equal(t, []string{"a", "&&", "b", "&&", "c"}, out)
}

func TestChain_Single(t *testing.T) {
	out := Chain([][]string{{"ls", "-l"}}, OpAlways)
	assert.Equal(t, []string{"ls", "-l"}, out)
}

func TestChain_Empty(t *testing.T) {
	assert.Empty(t, Chain(nil, OpAlways))
}

// =============================================================================
// Command Constructor Tests
// =============================================================================

func TestCommandExists(t *testing.T) {
	assert.Equal(t, []string{"command", "-v", "docker", ">/dev/null", "2>&1"}, CommandExists("docker"))
}

func TestAptGetInstall(t *testing.T) {
	assert.Equal(t, []string{"apt-get", "install", "-y", "nginx"}, AptGetInstall("nginx"))
}

func TestComposeCommands(t *testing.T) {
	path := "/srv/bot/docker-compose.yaml"
	assert.Equal(t, []string{"docker", "compose", "-f", path, "build"}, ComposeBuild(path))
	assert.Equal(t, []string{"docker", "compose", "-f", path, "up", "-d"}, ComposeUp(path))
	assert.Equal(t, []string{"docker", "compose", "-f", path, "down"}, ComposeDown(path))
}

func TestInstallDocker_ShortCircuits(t *testing.T) {
	out := InstallDocker()
	assert.Contains(t, out, "&&")
	assert.Contains(t, strings.Join(out, " "), "https://get.docker.com")
}

// =============================================================================
// CertbotChain Tests
// =============================================================================

func TestCertbotChain_UnconditionalJoin(t *testing.T) {
	out := CertbotChain("bot.example.com", "ops@example.com")

	// Eight commands joined unconditionally: every later command runs even
	// when an earlier one fails.
	joins := 0
	for _, tok := range out {
		if tok == string(OpAlways) {
			joins++
		}
	}
	assert.Equal(t, 7, joins)
	assert.NotContains(t, out, string(OpAndThen))
}

func TestCertbotChain_Contents(t *testing.T) {
	joined := strings.Join(CertbotChain("bot.example.com", "ops@example.com"), " ")

	require.Contains(t, joined, "apt-get install -y python3 python3-venv libaugeas0")
	require.Contains(t, joined, "python3 -m venv /opt/certbot/")
	require.Contains(t, joined, "/opt/certbot/bin/pip install --upgrade pip")
	require.Contains(t, joined, "/opt/certbot/bin/pip install certbot certbot-nginx")
	require.Contains(t, joined, "ln -s /opt/certbot/bin/certbot /usr/bin/certbot")
	require.Contains(t, joined, "certbot --nginx --agree-tos --test-cert --non-interactive --email ops@example.com -d bot.example.com")

	// nginx is bounced before and after issuance.
	assert.Equal(t, 2, strings.Count(joined, "pkill nginx"))
	assert.Less(t, strings.Index(joined, "pkill nginx"), strings.Index(joined, "certbot --nginx"))
}

func TestCertbotChain_TestCertMode(t *testing.T) {
	// Test-certificate issuance is a known limitation, carried deliberately.
	assert.Contains(t, CertbotChain("bot.example.com", "ops@example.com"), "--test-cert")
}
