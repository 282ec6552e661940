package notify

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Channel delivers one alert message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, tenantID, message string) error
}

// Well-known channel names used in the role table.
const (
	ChannelEmail   = "email"
	ChannelSlack   = "slack"
	ChannelWebhook = "webhook"
	ChannelRedis   = "redis"
)

// Router fans alert messages out to notification channels. Dispatch is
// best-effort: every requested channel is attempted, failures are logged,
// and Send reports the first failure after all attempts finish.
type Router struct {
	channels map[string]Channel
	names    []string
}

// NewRouter registers the given channels. Nil entries (unconfigured
// channels) are skipped.
func NewRouter(channels ...Channel) *Router {
	r := &Router{channels: make(map[string]Channel)}
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		r.channels[ch.Name()] = ch
		r.names = append(r.names, ch.Name())
	}
	sort.Strings(r.names)
	return r
}

// ChannelsFor maps a caller role to its notification channels. Admins get
// every configured channel; unrecognized roles get none.
func (r *Router) ChannelsFor(role string) []string {
	switch role {
	case "admin":
		out := make([]string, len(r.names))
		copy(out, r.names)
		return out
	case "security":
		return []string{ChannelEmail}
	case "compliance":
		return []string{ChannelWebhook}
	case "analyst":
		return []string{ChannelSlack}
	default:
		return []string{}
	}
}

// Send dispatches the message to the named channels concurrently and waits
// for all attempts. Channels without configuration are skipped silently.
func (r *Router) Send(ctx context.Context, tenantID, message string, channels []string) error {
	g := new(errgroup.Group)

	for _, name := range channels {
		ch, ok := r.channels[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ch.Send(ctx, tenantID, message); err != nil {
				log.Printf("❌ Notification via %s failed for tenant %s: %v", ch.Name(), tenantID, err)
				return err
			}
			log.Printf("📣 Notification via %s sent for tenant %s", ch.Name(), tenantID)
			return nil
		})
	}

	return g.Wait()
}

// Configured lists the registered channel names.
func (r *Router) Configured() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
