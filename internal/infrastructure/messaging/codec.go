package messaging

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/pkg/mq"
)

// eventMessage CommittedEvent的消息体
// 领域实体不带序列化tag，消息格式在这里单独定义
type eventMessage struct {
	PurchaseID uint            `json:"purchase_id"`
	CustomerID uint            `json:"customer_id"`
	Books      []bookMessage   `json:"books"`
	Price      decimal.Decimal `json:"price"`
	NFE        string          `json:"nfe,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type bookMessage struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func decodeEvent(body []byte) (purchase.CommittedEvent, error) {
	var msg eventMessage
	if err := mq.Unmarshal(body, &msg); err != nil {
		return purchase.CommittedEvent{}, fmt.Errorf("解析购买事件失败: %w", err)
	}
	if msg.PurchaseID == 0 {
		return purchase.CommittedEvent{}, fmt.Errorf("购买事件缺少purchase_id")
	}
	return msg.toEvent(), nil
}

func toMessage(event purchase.CommittedEvent) eventMessage {
	p := event.Purchase
	books := make([]bookMessage, len(p.Books))
	for i, b := range p.Books {
		books[i] = bookMessage{ID: b.BookID, Name: b.Name, Price: b.Price}
	}
	return eventMessage{
		PurchaseID: p.ID,
		CustomerID: p.CustomerID,
		Books:      books,
		Price:      p.Price,
		NFE:        p.NFE,
		CreatedAt:  p.CreatedAt,
		OccurredAt: event.OccurredAt,
	}
}

func (m eventMessage) toEvent() purchase.CommittedEvent {
	books := make([]purchase.PurchasedBook, len(m.Books))
	for i, b := range m.Books {
		books[i] = purchase.PurchasedBook{BookID: b.ID, Name: b.Name, Price: b.Price}
	}
	return purchase.CommittedEvent{
		Purchase: &purchase.Purchase{
			ID:         m.PurchaseID,
			CustomerID: m.CustomerID,
			Books:      books,
			Price:      m.Price,
			NFE:        m.NFE,
			CreatedAt:  m.CreatedAt,
		},
		OccurredAt: m.OccurredAt,
	}
}
