//go:build darwin

package config

import "os/exec"

// keychainExec reads a generic password from the login keychain. The -w flag
// prints only the secret, which is all the caller wants.
func keychainExec(service, account string) ([]byte, error) {
	out, err := exec.Command(
		"security", "find-generic-password",
		"-s", service,
		"-a", account,
		"-w",
	).Output()
	if err != nil {
		return nil, err
	}
	return out, nil
}
