// Package discovery finds register servers on the local network via mDNS.
//
// A board (or the simulator) advertises a "_csrlink._tcp" service whose TXT
// records name the board, the top-level design type and the design digest:
//
//	csrlink-rp-f0a1b2._csrlink._tcp.local.
//	  board=stemlab125_14 type=Top hash=3f2a... ver=1
//
// Clients browse for the service and dial the first address of a match:
//
//	browser := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
//	svc, err := browser.Find(ctx, "rp-f0a1b2")
//	cfg := transport.DefaultConfig(svc.Host)
//	cfg.Port = int(svc.Port)
//
// The session token is never advertised.
package discovery
