package database

import (
	"context"
	"sync"
	"time"

	"github.com/lib/pq"

	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// Table nomeia uma tabela observada.
type Table string

const (
	TableUsers    Table = "users"
	TableProducts Table = "products"
)

// NotifyChannel é o canal LISTEN/NOTIFY usado pelos triggers da migração 00003.
const NotifyChannel = "finalfeliz_changes"

// ChangeFeed publica uma revisão por tabela a cada escrita.
// Os valores só crescem; o assinante recarrega ao receber qualquer revisão nova.
type ChangeFeed struct {
	mu     sync.Mutex
	tables map[Table]*observable.Value[uint64]
}

// NewChangeFeed cria um feed vazio.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{tables: make(map[Table]*observable.Value[uint64])}
}

func (f *ChangeFeed) value(t Table) *observable.Value[uint64] {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.tables[t]
	if !ok {
		v = observable.NewValue[uint64](0)
		f.tables[t] = v
	}
	return v
}

// Notify avisa que a tabela t mudou.
func (f *ChangeFeed) Notify(t Table) {
	f.value(t).Update(func(rev uint64) uint64 { return rev + 1 })
}

// Revision devolve a revisão atual da tabela.
func (f *ChangeFeed) Revision(t Table) uint64 {
	return f.value(t).Get()
}

// Subscribe observa as revisões da tabela t. A revisão atual chega primeiro.
func (f *ChangeFeed) Subscribe(t Table) *observable.Subscription[uint64] {
	return f.value(t).Subscribe()
}

// Listen repassa ao feed os NOTIFY de outros processos (ex.: cmd/migrate, psql).
// Bloqueia até ctx ser cancelado.
func Listen(ctx context.Context, dsn string, feed *ChangeFeed, log logger.Logger) error {
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Error("Listener do Postgres reportou erro.", err)
		}
		if ev == pq.ListenerEventReconnected {
			// Notificações perdidas durante a queda: força recarga.
			feed.Notify(TableUsers)
			feed.Notify(TableProducts)
		}
	})
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return err
	}
	log.Info("Escutando mudanças do Postgres.", map[string]interface{}{"channel": NotifyChannel})

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// n == nil após reconexão.
			if n == nil {
				continue
			}
			switch Table(n.Extra) {
			case TableUsers, TableProducts:
				feed.Notify(Table(n.Extra))
			default:
				log.Debug("NOTIFY ignorado.", map[string]interface{}{"payload": n.Extra})
			}
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				log.Error("Ping do listener falhou.", err)
			}
		}
	}
}
