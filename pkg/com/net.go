package com

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/openpodium/podium/pkg/api"
	"github.com/openpodium/podium/pkg/logger"
	"github.com/openpodium/podium/pkg/network/websocket"
)

type (
	// Connector upgrades inbound HTTP requests into coordinator connections.
	Connector struct {
		tag string
		wu  *websocket.Upgrader
	}
	Option = func(c *Connector)
)

func WithOrigin(origin string) Option { return func(c *Connector) { c.wu = websocket.NewUpgrader(origin) } }
func WithTag(tag string) Option       { return func(c *Connector) { c.tag = tag } }

func NewConnector(opts ...Option) *Connector {
	c := &Connector{}
	for _, opt := range opts {
		opt(c)
	}
	if c.wu == nil {
		c.wu = websocket.DefaultUpgrader
	}
	return c
}

// NewClient upgrades the request and wraps the socket into a packet client.
func (co *Connector) NewClient(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*Client, error) {
	conn, err := co.wu.Upgrade(w, r)
	if err != nil {
		return nil, err
	}
	sock, err := websocket.NewServerWithConn(conn, log)
	if err != nil {
		return nil, err
	}
	id := NewUid()
	clLog := log.Extend(log.With().Str("cid", id.Short()).Str("tag", co.tag))
	clLog.Debug().Msg("Connect")
	c := &Client{id: id, sock: sock, log: clLog}
	return c, nil
}

// Client is a single live connection speaking the api packet protocol.
type Client struct {
	id       Uid
	sock     *websocket.WS
	onPacket func(in api.In)
	log      *logger.Logger
}

func (c *Client) Id() Uid        { return c.id }
func (c *Client) String() string { return c.id.String() }

// OnPacket sets the packet handler. Exactly one handler per connection.
func (c *Client) OnPacket(fn func(in api.In)) {
	c.onPacket = fn
	c.sock.SetMessageHandler(c.handleMessage)
}

func (c *Client) handleMessage(message []byte, err error) {
	if err != nil {
		c.log.Error().Err(err).Send()
		return
	}
	var in api.In
	if err := json.Unmarshal(message, &in); err != nil {
		c.log.Error().Err(err).Msg("broken packet")
		return
	}
	c.log.Debug().Str(logger.DirectionField, "←").Msgf("%v", in.T)
	c.onPacket(in)
}

// Notify sends a message and goes further.
func (c *Client) Notify(t api.PT, data any) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", t)
	c.send(api.Out{T: t, Payload: data})
}

// Route replies to the in packet tracking its id.
func (c *Client) Route(in api.In, t api.PT, data any) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", t)
	c.send(api.Out{Id: in.Id, T: t, Payload: data})
}

func (c *Client) send(out api.Out) {
	message, err := json.Marshal(out)
	if err != nil {
		c.log.Error().Err(err).Msg("packet encode fail")
		return
	}
	c.sock.Write(message)
}

func (c *Client) Listen() chan struct{} { return c.sock.Listen() }

func (c *Client) Close() {
	c.sock.Close()
	c.log.Debug().Str(logger.DirectionField, "x").Msg("Close")
}
