package remotecmd

// CertbotChain returns the certificate setup procedure as one composite
// command. The chain is joined unconditionally (OpAlways) on purpose: the
// tooling install steps are repeatable, and nginx is stopped and restarted
// around issuance regardless of the outcome of any single step.
//
// Issuance runs with --test-cert. TODO: switch to production issuance once
// the staging setup is confirmed against the real domain.
func CertbotChain(domain, email string) []string {
	certbot := []string{
		"certbot",
		"--nginx",
		"--agree-tos",
		"--test-cert",
		"--non-interactive",
		"--email", email,
		"-d", domain,
	}
	return Chain([][]string{
		AptGetInstall("python3", "python3-venv", "libaugeas0"),
		{"python3", "-m", "venv", "/opt/certbot/"},
		{"/opt/certbot/bin/pip", "install", "--upgrade", "pip"},
		{"/opt/certbot/bin/pip", "install", "certbot", "certbot-nginx"},
		{"ln", "-s", "/opt/certbot/bin/certbot", "/usr/bin/certbot"},
		{"pkill", "nginx"},
		certbot,
		{"pkill", "nginx"},
	}, OpAlways)
}
