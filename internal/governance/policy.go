package governance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

// ErrNonPublicAddress is returned when a connection targets an address that
// is not publicly routable.
var ErrNonPublicAddress = errors.New("address is not publicly routable")

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes a tool call made while answering a query.
type Request struct {
	Tool      string
	Arguments string // JSON
	RunID     string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

func (r Result) Allowed() bool { return r.Effect == EffectAllow }

// PolicyEngine evaluates tool calls against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type argumentRule struct {
	tool string // empty matches every tool
	re   *regexp.Regexp
}

// DefaultPolicyEngine denies by tool name, by argument pattern and, optionally,
// any "url" argument whose host is, or resolves to, a non-public address.
type DefaultPolicyEngine struct {
	DeniedTools map[string]bool
	// Resolver is consulted for named hosts when private hosts are denied.
	// Nil means net.DefaultResolver.
	Resolver     Resolver
	rules        []argumentRule
	privateHosts bool
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedTools: make(map[string]bool),
	}
}

// NewToolPolicy returns the engine used for web tools: outbound fetches may
// only reach public hosts over http(s).
func NewToolPolicy() *DefaultPolicyEngine {
	e := NewDefaultPolicyEngine()
	e.DenyPrivateHosts()
	// Patterns are fixed and known to compile.
	_ = e.DenyArguments(`"url"\s*:\s*"(?i:file|ftp|gopher|data):`)
	return e
}

func (e *DefaultPolicyEngine) DenyTool(name string) {
	e.DeniedTools[name] = true
}

// DenyArguments rejects calls to any tool whose arguments match pattern.
func (e *DefaultPolicyEngine) DenyArguments(pattern string) error {
	return e.DenyArgumentsFor("", pattern)
}

// DenyArgumentsFor rejects calls to tool whose arguments match pattern.
func (e *DefaultPolicyEngine) DenyArgumentsFor(tool, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.rules = append(e.rules, argumentRule{tool: tool, re: re})
	return nil
}

func (e *DefaultPolicyEngine) DenyPrivateHosts() {
	e.privateHosts = true
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedTools[req.Tool] {
		return deny("Tool '%s' is restricted by system policy", req.Tool), nil
	}

	for _, r := range e.rules {
		if r.tool != "" && r.tool != req.Tool {
			continue
		}
		if r.re.MatchString(req.Arguments) {
			return deny("Arguments match restricted pattern: %s", r.re.String()), nil
		}
	}

	if e.privateHosts {
		if host, ok := urlHost(req.Arguments); ok {
			if public, reason := e.publicHost(ctx, host); !public {
				return deny("Host '%s' %s", host, reason), nil
			}
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

func deny(format string, args ...any) Result {
	return Result{Effect: EffectDeny, Reason: fmt.Sprintf(format, args...)}
}

// urlHost extracts the host of a "url" field in JSON arguments.
func urlHost(arguments string) (string, bool) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.URL == "" {
		return "", false
	}
	u, err := url.Parse(args.URL)
	if err != nil {
		return "", false
	}
	return u.Hostname(), true
}

// publicHost reports whether every address host stands for is public. Named
// hosts are resolved; a failed lookup counts as not public.
func (e *DefaultPolicyEngine) publicHost(ctx context.Context, host string) (bool, string) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return false, "is not publicly routable"
	}
	if ip := parseIPHost(host); ip != nil {
		if !IsPublicIP(ip) {
			return false, "is not publicly routable"
		}
		return true, ""
	}

	resolver := e.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return false, "could not be resolved"
	}
	for _, a := range addrs {
		if !IsPublicIP(a.IP) {
			return false, "resolves to " + a.IP.String() + ", which is not publicly routable"
		}
	}
	return true, ""
}

// parseIPHost parses a literal address, including the shorthand IPv4 forms
// (2130706433, 0x7f000001, 127.1) that resolvers accept as hostnames.
func parseIPHost(host string) net.IP {
	if ip := net.ParseIP(host); ip != nil {
		return ip
	}
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return nil
	}
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 0, 32)
		if err != nil {
			return nil
		}
		vals[i] = v
	}

	// The last part fills all the bytes the earlier parts leave.
	last := len(vals) - 1
	var n uint64
	for i, v := range vals[:last] {
		if v > 0xff {
			return nil
		}
		n |= v << (24 - 8*uint(i))
	}
	if vals[last] >= 1<<(8*uint(4-last)) {
		return nil
	}
	n |= vals[last]
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// IsPublicIP reports whether ip is a globally routable unicast address.
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

// PublicDialControl is a net.Dialer Control hook that refuses connections to
// non-public addresses. It runs after name resolution, so it also covers
// redirects and hosts whose records change between check and fetch.
func PublicDialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if !IsPublicIP(net.ParseIP(host)) {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, host)
	}
	return nil
}
