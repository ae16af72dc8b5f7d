package deploy

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/fleetpush/fleetpush/pkg/inventory"
)

// CheckResult is the outcome of one reachability probe.
type CheckResult struct {
	DeviceID  string
	Host      string
	Reachable bool
	SSHOK     bool
	Detail    string
}

// CheckDevices probes each device concurrently (bounded by concurrency):
// an SSH login attempt first, falling back to a bare TCP dial so an
// unreachable device can be told apart from one with bad credentials.
// Results are returned in inventory order.
func CheckDevices(ctx context.Context, devices []*inventory.Device, shared Credentials, concurrency int, timeout time.Duration) []*CheckResult {
	if concurrency <= 0 {
		concurrency = 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	results := make([]*CheckResult, len(devices))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func(i int, d *inventory.Device) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = checkDevice(ctx, d, mergeCredentials(d, shared), timeout)
		}(i, d)
	}
	wg.Wait()
	return results
}

func checkDevice(ctx context.Context, d *inventory.Device, creds Credentials, timeout time.Duration) *CheckResult {
	res := &CheckResult{DeviceID: d.ID(), Host: d.Host}

	port := d.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(d.Host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		res.Detail = fmt.Sprintf("unreachable: %v", err)
		return res
	}
	res.Reachable = true
	conn.SetDeadline(time.Now().Add(timeout))

	config := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	sconn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			res.Detail = "reachable, SSH auth failed"
		} else {
			res.Detail = fmt.Sprintf("reachable, SSH handshake failed: %v", err)
		}
		return res
	}
	ssh.NewClient(sconn, chans, reqs).Close()
	res.SSHOK = true
	res.Detail = "SSH login OK"
	return res
}
