package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16

	StartRunAction    = "run.start"
	JoinRunAction     = "run.join"
	RunStartedAction  = "run.started"
	GenerationAction  = "run.generation"
	RunFinishedAction = "run.finished"
	RunErrorAction    = "run.error"
)

type Message struct {
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
	Target string `json:"target,omitempty"`
	Sender string `json:"sender,omitempty"`
}

func (message *Message) encode() []byte {
	data, _ := json.Marshal(message)
	return data
}

// inboundMessage is a client message whose payload is decoded per type.
type inboundMessage struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Target string          `json:"target,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RunInfo struct {
	Id         string        `json:"id"`
	Owner      string        `json:"owner"`
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Params     engine.Params `json:"params"`
	Generation int           `json:"generation"`
	Board      string        `json:"board"`
}

type GenerationInfo struct {
	*engine.Generation
	Cells string `json:"cells"`
}

type FinishedInfo struct {
	Id     string         `json:"id"`
	Run    *store.Run     `json:"run,omitempty"`
	Result *engine.Result `json:"result"`
}

// Room streams one simulation to every client that joined it. It closes itself
// once the simulation finishes.
type Room struct {
	Name       string
	Owner      string
	server     *Server
	sim        *engine.Simulation
	interval   time.Duration
	sub        *Subscriber
	clients    []*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	mutex      sync.Mutex
	current    RunInfo
}

func NewRoom(name, owner string, server *Server, sim *engine.Simulation, interval time.Duration) *Room {
	ctx, cancel := context.WithCancel(server.ctx)
	b := sim.Current().Board
	return &Room{
		Name:       name,
		Owner:      owner,
		server:     server,
		sim:        sim,
		interval:   interval,
		sub:        server.broker.Subscribe(ctx, name),
		clients:    make([]*Client, 0),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		current: RunInfo{
			Id:     name,
			Owner:  owner,
			Rows:   b.Rows,
			Cols:   b.Cols,
			Params: sim.Params,
			Board:  b.String(),
		},
	}
}

func (room *Room) Run() {
	go room.subscribeToRoomMessages(room.sub)
	for {
		select {
		case client := <-room.register:
			room.registerClientInRoom(client)
		case client := <-room.unregister:
			room.unregisterClientInRoom(client)
		case <-room.ctx.Done():
			room.server.broker.Unsubscribe(context.TODO(), room.sub)
			room.server.removeRoom(room)
			close(room.done)
			return
		}
	}
}

func (room *Room) Close() {
	room.cancel()
}

// simulate runs the simulation to the end, publishes every generation and
// stores the result.
func (room *Room) simulate() {
	defer room.Close()
	room.sim.On(func(g *engine.Generation) {
		cells := g.Board.String()
		room.mutex.Lock()
		room.current.Generation = g.Index
		room.current.Board = cells
		room.mutex.Unlock()

		m := Message{Type: GenerationAction, Target: room.Name, Data: &GenerationInfo{g, cells}}
		room.publishRoomMessage(m.encode())
		if room.interval > 0 {
			select {
			case <-time.After(room.interval):
			case <-room.ctx.Done():
			}
		}
	})

	result, err := room.sim.Run(room.ctx)
	if err != nil {
		log.Printf("run %s stopped: %v", room.Name, err)
		return
	}
	info := &FinishedInfo{Id: room.Name, Result: result}
	if repo := room.server.repository; repo != nil {
		run, err := repo.SaveRun(room.Owner, room.sim.Params, result)
		if err != nil {
			log.Printf("saving run %s: %v", room.Name, err)
		} else {
			info.Run = run
		}
	}
	log.Printf("run %s finished after %d generations", room.Name, result.Generations)
	m := Message{Type: RunFinishedAction, Target: room.Name, Data: info}
	room.publishRoomMessage(m.encode())
}

func (room *Room) registerClientInRoom(client *Client) {
	room.mutex.Lock()
	defer room.mutex.Unlock()
	room.clients = append(room.clients, client)
	info := room.current
	m := Message{Type: RunStartedAction, Target: room.Name, Data: &info}
	client.deliver(m.encode())
}

func (room *Room) unregisterClientInRoom(client *Client) {
	room.mutex.Lock()
	defer room.mutex.Unlock()
	for i, c := range room.clients {
		if c == client {
			room.clients = append(room.clients[:i], room.clients[i+1:]...)
			break
		}
	}
}

func (room *Room) broadcastToClientsInRoom(message []byte) {
	room.mutex.Lock()
	defer room.mutex.Unlock()
	for _, client := range room.clients {
		client.deliver(message)
	}
}

func (room *Room) publishRoomMessage(message []byte) {
	if err := room.server.broker.Publish(room.ctx, room.Name, message); err != nil {
		log.Println(err)
	}
}

func (room *Room) subscribeToRoomMessages(ch *Subscriber) {
	for msg := range ch.Channel {
		room.broadcastToClientsInRoom(msg)
	}
}

type Client struct {
	Name   string
	conn   *websocket.Conn
	server *Server
	send   chan []byte
	room   *Room
	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, server *Server, name string) *Client {
	return &Client{
		Name:   name,
		conn:   conn,
		server: server,
		send:   make(chan []byte, 256),
	}
}

// deliver queues a message without blocking. Messages for a client whose queue
// is full are dropped.
func (client *Client) deliver(message []byte) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.closed {
		return
	}
	select {
	case client.send <- message:
	default:
		log.Printf("client %s is not keeping up, dropping message", client.Name)
	}
}

func (client *Client) sendError(format string, args ...any) {
	m := Message{Type: RunErrorAction, Data: fmt.Sprintf(format, args...)}
	client.deliver(m.encode())
}

func (client *Client) readPump() {
	defer func() {
		client.disconnect()
	}()
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error { client.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, jsonMessage, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("unexpected close error: %v", err)
			}
			break
		}
		client.handleNewMessage(jsonMessage)
	}
}

func (client *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (client *Client) disconnect() {
	client.leaveRoom()
	client.mu.Lock()
	client.closed = true
	close(client.send)
	client.mu.Unlock()
	client.conn.Close()
}

func ServeWs(wsServer *Server, w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		log.Println("Not authenticated")
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	client := newClient(conn, wsServer, user)

	go client.writePump()
	go client.readPump()
}

func (client *Client) handleNewMessage(jsonMessage []byte) {
	var message inboundMessage
	if err := json.Unmarshal(jsonMessage, &message); err != nil {
		log.Printf("Error on unmarshal JSON message %s", err)
		client.sendError("malformed message: %v", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s message: %v", message.Type, r)
			client.sendError("internal error")
		}
	}()
	switch message.Type {
	case StartRunAction:
		client.handleStartRun(&message)
	case JoinRunAction:
		client.handleJoinRun(&message)
	default:
		client.sendError("unknown message type %q", message.Type)
	}
}

func (client *Client) handleStartRun(message *inboundMessage) {
	req := newRunRequest()
	if len(message.Data) > 0 {
		if err := json.Unmarshal(message.Data, &req); err != nil {
			client.sendError("invalid run request: %v", err)
			return
		}
	}
	sim, err := req.Simulation()
	if err != nil {
		client.sendError("%v", err)
		return
	}
	interval := time.Duration(req.Interval) * time.Millisecond
	room := NewRoom(ulid.Make().String(), client.Name, client.server, sim, interval)
	client.server.addRoom(room)
	go room.Run()

	log.Printf("starting run %s for %s", room.Name, client.Name)
	client.joinRoom(room)
	go room.simulate()
}

func (client *Client) handleJoinRun(message *inboundMessage) {
	id := message.Target
	if id == "" && len(message.Data) > 0 {
		if err := json.Unmarshal(message.Data, &id); err != nil {
			client.sendError("invalid run id: %v", err)
			return
		}
	}
	room := client.server.findRoom(id)
	if room == nil || !client.joinRoom(room) {
		client.sendError("run %q is not running", id)
	}
}

func (client *Client) joinRoom(room *Room) bool {
	if client.room == room {
		return true
	}
	client.leaveRoom()
	select {
	case room.register <- client:
		client.room = room
		return true
	case <-room.done:
		return false
	}
}

func (client *Client) leaveRoom() {
	if client.room == nil {
		return
	}
	select {
	case client.room.unregister <- client:
	case <-client.room.done:
	}
	client.room = nil
}

// Server keeps track of the rooms of running simulations.
type Server struct {
	rooms      map[string]*Room
	repository *store.Repository
	broker     Broker
	ctx        context.Context
	cancel     context.CancelFunc
	mutex      sync.Mutex
}

func NewWebsocketServer(broker Broker, repository *store.Repository) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		rooms:      make(map[string]*Room),
		repository: repository,
		broker:     broker,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (server *Server) addRoom(room *Room) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.rooms[room.Name] = room
}

func (server *Server) removeRoom(room *Room) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	delete(server.rooms, room.Name)
}

func (server *Server) findRoom(name string) *Room {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.rooms[name]
}

// Close stops every running simulation.
func (server *Server) Close() {
	server.cancel()
	server.broker.Close()
}
