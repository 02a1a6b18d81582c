package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// Hub satisface inventory.StockNotifier.
var _ inventory.StockNotifier = (*Hub)(nil)

// Hub mantiene las conexiones websocket suscritas a cambios de stock y les
// difunde cada cambio comprometido.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        *logger.Logger
}

// NewHub construye el hub. Broadcast es con buffer: si el hub se atrasa se
// descartan mensajes en vez de bloquear al publicador.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 256),
		log:        log,
	}
}

// Run atiende registros, bajas y difusión. Llamar en una goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug().Msg("cliente websocket conectado")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// PublishStockChange difunde un cambio de stock a los clientes conectados.
// Fire-and-forget: si el buffer está lleno el mensaje se descarta.
func (h *Hub) PublishStockChange(change inventory.StockChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		h.log.Error().Err(err).Msg("error serializando cambio de stock")
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
		h.log.Warn().
			Str("product_id", change.ProductID).
			Msg("buffer de difusión lleno, cambio de stock descartado")
	}
}
