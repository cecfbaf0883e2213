package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/degenecho/price-game-platform/internal/price-ingest/publisher"
	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// WSClient consome o canal ticker do WebSocket público da Kraken e publica
// cada observação de preço em um tópico Kafka.
type WSClient struct {
	URL       string                    // endpoint WS da Kraken
	Pair      string                    // par no formato do canal, ex: "SOL/USD"
	RESTPair  string                    // par normalizado usado nas chaves, ex: "SOLUSD"
	Log       *zap.Logger               // Logger estruturado
	Publisher *publisher.KafkaPublisher // Publisher Kafka dos ticks
}

// Start inicia o loop de conexão e escuta do WebSocket.
// Em caso de desconexão, tenta reconectar automaticamente com backoff.
func (c *WSClient) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				time.Sleep(3 * time.Second) // Aguarda antes de tentar reconectar
			}
		}
	}
}

// connectAndListen conecta, assina o canal ticker do par e processa as
// mensagens recebidas.
func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to Kraken WS", zap.String("url", c.URL), zap.String("pair", c.Pair))

	sub := map[string]any{
		"event":        "subscribe",
		"pair":         []string{c.Pair},
		"subscription": map[string]string{"name": "ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		tick, ok := c.parseTick(message)
		if !ok {
			continue // heartbeat, status de assinatura etc.
		}

		// Publica o tick recebido no Kafka
		if err := c.Publisher.Publish(ctx, tick); err != nil {
			c.Log.Error("failed to publish to Kafka", zap.Error(err))
		}
	}
}

// parseTick extrai o preço do último trade de uma mensagem do canal ticker.
// O formato é um array [channelID, payload, "ticker", pair]; mensagens de
// evento (objetos JSON) são ignoradas.
func (c *WSClient) parseTick(message []byte) (events.PriceTick, bool) {
	var frame []json.RawMessage
	if err := json.Unmarshal(message, &frame); err != nil || len(frame) < 4 {
		return events.PriceTick{}, false
	}

	var payload struct {
		C []string `json:"c"` // [preço do último trade, volume]
	}
	if err := json.Unmarshal(frame[1], &payload); err != nil || len(payload.C) == 0 {
		return events.PriceTick{}, false
	}

	price, err := strconv.ParseFloat(payload.C[0], 64)
	if err != nil || price <= 0 {
		c.Log.Warn("invalid ticker price", zap.Strings("c", payload.C))
		return events.PriceTick{}, false
	}

	return events.PriceTick{
		Pair:     c.RESTPair,
		Price:    price,
		TsUnixMs: time.Now().UnixMilli(),
	}, true
}
