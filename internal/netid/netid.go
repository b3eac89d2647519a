// Package netid resolves the device's network identity: the single
// IPv4 address it is reachable on.  The address is resolved once at
// startup and never changes afterwards.
package netid

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"

	"picoctl/internal/errors"
	"picoctl/internal/retry"
	"picoctl/util"
)

// ErrNoAddress means no usable IPv4 address was found.
var ErrNoAddress = errors.New("no IPv4 address")

// Identity is a 4-octet IPv4 address.
type Identity [4]byte

// Parse reads a dotted-quad address.
func Parse(s string) (Identity, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Identity{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if !addr.Is4() {
		return Identity{}, fmt.Errorf("parse %q: %w", s, ErrNoAddress)
	}
	return Identity(addr.As4()), nil
}

// String formats the address as a dotted quad.
func (id Identity) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", id[0], id[1], id[2], id[3])
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool { return id == Identity{} }

// InterfaceSource lists the host's network interfaces.
type InterfaceSource func(ctx context.Context) ([]gnet.InterfaceStat, error)

// SystemInterfaces lists interfaces through gopsutil.
func SystemInterfaces(ctx context.Context) ([]gnet.InterfaceStat, error) {
	return gnet.InterfacesWithContext(ctx)
}

// Options controls Resolve.
type Options struct {
	Interface string        // restrict to this interface; empty = any up interface
	StaticIP  string        // use this address instead of discovery
	Timeout   time.Duration // bring-up window
	Source    InterfaceSource
	Backoff   *retry.Backoff
	Logger    *util.Logger
}

// Resolve returns the device identity.  Without a static address it
// polls the interface list until a non-loopback IPv4 address appears
// or the timeout expires, in which case the error matches
// errors.ErrTransportUnavailable.  There is a single bring-up window;
// no further retry happens after it closes.
func Resolve(ctx context.Context, opts Options) (Identity, error) {
	logger := opts.Logger.Named("netid")

	if opts.StaticIP != "" {
		id, err := Parse(opts.StaticIP)
		if err != nil {
			return Identity{}, errors.Unavailable("resolve", "static", err)
		}
		logger.Verbose("using static address")
		connected(logger, id)
		return id, nil
	}

	source := opts.Source
	if source == nil {
		source = SystemInterfaces
	}
	bo := opts.Backoff
	if bo == nil {
		bo = retry.Poll()
	}
	where := opts.Interface
	if where == "" {
		where = "any"
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	logger.Info("waiting for an IPv4 address on %s (timeout %s)", where, opts.Timeout)

	var id Identity
	err := bo.Do(ctx, func(attempt int) error {
		ifaces, err := source(ctx)
		if err != nil {
			return err
		}
		id, err = pick(ifaces, opts.Interface)
		if err != nil {
			logger.Debug("attempt %d: %v", attempt, err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", errors.ErrTimeout, opts.Timeout, err)
		}
		return Identity{}, errors.Unavailable("resolve", where, err)
	}
	connected(logger, id)
	return id, nil
}

func connected(logger *util.Logger, id Identity) {
	logger.Info("Connected.")
	logger.Info("Endereço IP %s", id)
}

// pick returns the first IPv4 address of an up, non-loopback
// interface, restricted to name when it is set.
func pick(ifaces []gnet.InterfaceStat, name string) (Identity, error) {
	found := false
	for _, iface := range ifaces {
		if name != "" && iface.Name != name {
			continue
		}
		found = true
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			prefix, err := netip.ParsePrefix(a.Addr)
			var addr netip.Addr
			if err == nil {
				addr = prefix.Addr()
			} else if addr, err = netip.ParseAddr(a.Addr); err != nil {
				continue
			}
			if addr.Is4() && !addr.IsLoopback() && !addr.IsUnspecified() {
				return Identity(addr.As4()), nil
			}
		}
	}
	if name != "" && !found {
		return Identity{}, fmt.Errorf("interface %s not present: %w", name, ErrNoAddress)
	}
	return Identity{}, ErrNoAddress
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}
