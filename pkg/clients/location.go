// Package clients resolves Arrow Flight locations and opens Flight clients over grpc.
package clients

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/ajitpratap0/flightbridge/pkg/config"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
)

// Flight location schemes
const (
	SchemeGRPC    = "grpc"
	SchemeGRPCTCP = "grpc+tcp"
	SchemeGRPCTLS = "grpc+tls"
	SchemeUnix    = "grpc+unix"
)

// Location is a parsed Flight location URI
type Location struct {
	Scheme string
	Host   string
	Port   int
	// Path is the socket path of grpc+unix locations
	Path string
}

// ForGrpcInsecure returns a grpc+tcp location
func ForGrpcInsecure(host string, port int) Location {
	return Location{Scheme: SchemeGRPCTCP, Host: host, Port: port}
}

// ForGrpcTLS returns a grpc+tls location
func ForGrpcTLS(host string, port int) Location {
	return Location{Scheme: SchemeGRPCTLS, Host: host, Port: port}
}

// ForGrpcDomainSocket returns a grpc+unix location
func ForGrpcDomainSocket(path string) Location {
	return Location{Scheme: SchemeUnix, Path: path}
}

// ParseLocation parses a Flight location URI such as grpc+tcp://host:8815 or
// grpc+unix:///tmp/flight.sock
func ParseLocation(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeValidation, fmt.Sprintf("invalid location %q", uri))
	}

	switch u.Scheme {
	case SchemeUnix:
		if u.Path == "" {
			return Location{}, errors.Newf(errors.ErrorTypeValidation, "location %q has no socket path", uri)
		}
		return ForGrpcDomainSocket(u.Path), nil
	case SchemeGRPC, SchemeGRPCTCP, SchemeGRPCTLS:
		host := u.Hostname()
		if host == "" {
			return Location{}, errors.Newf(errors.ErrorTypeValidation, "location %q has no host", uri)
		}
		port, err := strconv.Atoi(u.Port())
		if err != nil || port <= 0 || port > 65535 {
			return Location{}, errors.Newf(errors.ErrorTypeValidation, "location %q has no valid port", uri)
		}
		return Location{Scheme: u.Scheme, Host: host, Port: port}, nil
	default:
		return Location{}, errors.Newf(errors.ErrorTypeValidation, "unsupported location scheme %q", u.Scheme)
	}
}

// URI renders the location
func (l Location) URI() string {
	if l.Scheme == SchemeUnix {
		return SchemeUnix + "://" + l.Path
	}
	return fmt.Sprintf("%s://%s:%d", l.Scheme, l.Host, l.Port)
}

func (l Location) String() string {
	return l.URI()
}

// Target is the grpc dial target of the location
func (l Location) Target() string {
	if l.Scheme == SchemeUnix {
		return "unix://" + l.Path
	}
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// UseTLS reports whether the location requires TLS
func (l Location) UseTLS() bool {
	return l.Scheme == SchemeGRPCTLS
}

// LocationProvider resolves the location of the configured Flight service
type LocationProvider interface {
	Location(session *core.Session) (Location, error)
	// TLS reports whether connections made through this provider use TLS
	TLS() bool
}

// InsecureLocationProvider yields grpc+tcp://address:port
type InsecureLocationProvider struct {
	address string
	port    int
}

func NewInsecureLocationProvider(address string, port int) *InsecureLocationProvider {
	return &InsecureLocationProvider{address: address, port: port}
}

func (p *InsecureLocationProvider) Location(*core.Session) (Location, error) {
	return ForGrpcInsecure(p.address, p.port), nil
}

func (p *InsecureLocationProvider) TLS() bool { return false }

// TLSLocationProvider yields grpc+tls://address:port
type TLSLocationProvider struct {
	address string
	port    int
}

func NewTLSLocationProvider(address string, port int) *TLSLocationProvider {
	return &TLSLocationProvider{address: address, port: port}
}

func (p *TLSLocationProvider) Location(*core.Session) (Location, error) {
	return ForGrpcTLS(p.address, p.port), nil
}

func (p *TLSLocationProvider) TLS() bool { return true }

// NewLocationProvider selects a provider by cfg.LocationProviderType
func NewLocationProvider(cfg *config.FlightConfig) (LocationProvider, error) {
	switch cfg.LocationProviderType {
	case config.LocationProviderInsecure, "":
		return NewInsecureLocationProvider(cfg.ServerAddress, cfg.ServerPort), nil
	case config.LocationProviderTLS:
		return NewTLSLocationProvider(cfg.ServerAddress, cfg.ServerPort), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown location provider type %q", cfg.LocationProviderType)
	}
}
