package chat

import (
	"fmt"
	"log/slog"

	"github.com/wtask/linechat/internal/chat/broker"
	"github.com/wtask/linechat/internal/chat/history"
)

// BrokerBuilder - helps to build custom broker.Broker with required dependencies.
type BrokerBuilder func(log *slog.Logger) (*broker.Broker, error)

// DefaultBroker - returns builder of broker.Broker which greets every new connection
// with the latest `historyGreets` chat lines. Zero `historyGreets` disables history at all.
func DefaultBroker(historyGreets int) BrokerBuilder {
	return func(log *slog.Logger) (*broker.Broker, error) {
		if historyGreets < 0 {
			return nil, fmt.Errorf("chat.DefaultBroker: invalid history greets (%d)", historyGreets)
		}
		options := []broker.Option{broker.WithLogger(log)}
		if historyGreets > 0 {
			h, err := history.NewStack(historyGreets)
			if err != nil {
				return nil, fmt.Errorf("chat.DefaultBroker: %w", err)
			}
			options = append(options, broker.WithHistory(h, historyGreets))
		}
		return broker.New(options...)
	}
}
