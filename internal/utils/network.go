package utils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ipEchoServices = []string{
	"https://api.ipify.org",
	"https://icanhazip.com",
	"https://ifconfig.me/ip",
}

// PublicIP returns the address this machine is reachable at from the
// internet, the one players put in their server list. It asks a few echo
// services in order and returns the first non-empty answer.
func PublicIP() (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	var lastErr error
	for _, service := range ipEchoServices {
		ip, err := fetchIP(client, service)
		if err != nil {
			lastErr = err
			continue
		}
		if ip != "" {
			return ip, nil
		}
	}

	return "", fmt.Errorf("failed to determine public IP: %v", lastErr)
}

func fetchIP(client *http.Client, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}
