// Command metawatch tails PostgreSQL logical replication and forwards one
// line of JSON per row change on the two meta-collection rows of the
// pgjsonb reference Gateway's `documents` table. It is its own Go
// module — a standalone process with no dependency on the rest of this
// repo, talking to consumers (the Hot Reload Controller's ChangeEvent
// feed) over a plain TCP line protocol.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
)

// metaCollections mirrors pkg/catalog.EntitiesMetaCollection and
// .RelationshipsMetaCollection; duplicated here rather than imported since
// this module has no dependency on the server module.
var metaCollections = map[string]bool{
	"_typedstore_entities":      true,
	"_typedstore_relationships": true,
}

// ChangeEvent is the wire shape the Hot Reload Controller's consumer
// decodes, mirroring internal/reload.ChangeEvent.
type ChangeEvent struct {
	Table string `json:"table"`
}

type wal2jsonMessage struct {
	Change []wal2jsonChange `json:"change"`
}

type wal2jsonChange struct {
	Kind         string        `json:"kind"`
	Schema       string        `json:"schema"`
	Table        string        `json:"table"`
	ColumnNames  []string      `json:"columnnames"`
	ColumnValues []interface{} `json:"columnvalues"`
}

// Broadcaster fans out ChangeEvents to every connected TCP client.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[chan ChangeEvent]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[chan ChangeEvent]struct{})}
}

func (b *Broadcaster) AddListener(listener chan ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[listener] = struct{}{}
	log.Printf("listener added, total %d", len(b.listeners))
}

func (b *Broadcaster) RemoveListener(listener chan ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, listener)
	log.Printf("listener removed, total %d", len(b.listeners))
}

func (b *Broadcaster) Broadcast(ev ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for listener := range b.listeners {
		select {
		case listener <- ev:
		default:
			log.Printf("listener channel full, dropping change event for %s", ev.Table)
		}
	}
}

func main() {
	broadcaster := NewBroadcaster()
	go mainReplicationReader(broadcaster)
	startTCPServer(broadcaster)
}

func mainReplicationReader(b *Broadcaster) {
	for {
		if err := connectAndReadReplication(b); err != nil {
			log.Printf("replication connection error: %v. reconnecting in 5s", err)
			time.Sleep(5 * time.Second)
		}
	}
}

func connectAndReadReplication(b *Broadcaster) error {
	connStr := "host=" + getenv("PGHOST", "postgres") +
		" port=" + getenv("PGPORT", "5432") +
		" user=" + getenv("PGUSER", "postgres") +
		" password=" + getenv("PGPASSWORD", "pass") +
		" dbname=" + getenv("PGDATABASE", "typedstore") +
		" replication=database"

	conn, err := pgconn.Connect(context.Background(), connStr)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	sys, err := pglogrepl.IdentifySystem(context.Background(), conn)
	if err != nil {
		return err
	}
	log.Printf("postgres system %s, timeline %d, xlogpos %s", sys.SystemID, sys.Timeline, sys.XLogPos)

	slotName := "typedstore_metawatch_slot"
	pluginArguments := []string{"\"pretty-print\" 'false'"}

	if err := pglogrepl.StartReplication(context.Background(), conn, slotName, sys.XLogPos,
		pglogrepl.StartReplicationOptions{PluginArgs: pluginArguments}); err != nil {
		return err
	}
	log.Printf("logical replication started on slot %s", slotName)

	var lastLSN pglogrepl.LSN
	standbyMessageTimeout := 10 * time.Second
	nextStandbyMessageDeadline := time.Now().Add(standbyMessageTimeout)

	for {
		if time.Now().After(nextStandbyMessageDeadline) && lastLSN != 0 {
			if err := pglogrepl.SendStandbyStatusUpdate(context.Background(), conn, pglogrepl.StandbyStatusUpdate{WALWritePosition: lastLSN}); err != nil {
				return err
			}
			nextStandbyMessageDeadline = time.Now().Add(standbyMessageTimeout)
		}

		ctx, cancel := context.WithDeadline(context.Background(), nextStandbyMessageDeadline)
		rawMsg, err := conn.ReceiveMessage(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
				continue
			}
			return err
		}

		if errMsg, ok := rawMsg.(*pgproto3.ErrorResponse); ok {
			return errors.New(errMsg.Message)
		}

		msg, ok := rawMsg.(*pgproto3.CopyData)
		if !ok {
			continue
		}

		switch msg.Data[0] {
		case pglogrepl.PrimaryKeepaliveMessageByteID:
			pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(msg.Data[1:])
			if err != nil {
				continue
			}
			if pkm.ReplyRequested {
				nextStandbyMessageDeadline = time.Time{}
			}

		case pglogrepl.XLogDataByteID:
			xld, err := pglogrepl.ParseXLogData(msg.Data[1:])
			if err != nil {
				log.Printf("parsing xlog data: %v", err)
				continue
			}
			lastLSN = xld.WALStart

			var payload wal2jsonMessage
			if err := json.Unmarshal(xld.WALData, &payload); err != nil {
				continue
			}
			for _, change := range payload.Change {
				if ev, ok := changeEventFor(change); ok {
					b.Broadcast(ev)
				}
			}
		}
	}
}

// changeEventFor extracts the affected collection from a wal2json change
// entry on the documents table, filtered to the two meta-collections the
// Hot Reload Controller cares about. The `documents` table partitions
// every logical collection into one physical table, so watching it means
// inspecting the row's own `collection` column rather than the table name.
func changeEventFor(c wal2jsonChange) (ChangeEvent, bool) {
	if c.Table != "documents" {
		return ChangeEvent{}, false
	}
	for i, name := range c.ColumnNames {
		if name != "collection" {
			continue
		}
		if i >= len(c.ColumnValues) {
			return ChangeEvent{}, false
		}
		collection, ok := c.ColumnValues[i].(string)
		if !ok || !metaCollections[collection] {
			return ChangeEvent{}, false
		}
		return ChangeEvent{Table: collection}, true
	}
	return ChangeEvent{}, false
}

func startTCPServer(b *Broadcaster) {
	addr := ":" + getenv("METAWATCH_PORT", "9100")
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalln("tcp listen error:", err)
	}
	defer l.Close()

	log.Println("listening for change-stream consumers on", addr)
	for {
		client, err := l.Accept()
		if err != nil {
			log.Println("accept:", err)
			continue
		}
		go handleClient(client, b)
	}
}

func handleClient(c net.Conn, b *Broadcaster) {
	defer c.Close()
	log.Printf("consumer %v connected", c.RemoteAddr())

	events := make(chan ChangeEvent, 16)
	b.AddListener(events)
	defer b.RemoveListener(events)

	enc := json.NewEncoder(c)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			log.Printf("consumer %v write error: %v, disconnecting", c.RemoteAddr(), err)
			return
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
