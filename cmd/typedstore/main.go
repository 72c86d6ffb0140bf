// Command typedstore is a minimal end-to-end demo of the engine: it opens
// the pgjsonb reference Gateway, seeds the two meta-collections with one
// entity pair and a relationship if they're empty, runs the Hot Reload
// Controller to build a GraphQL schema from them, dials metawatch's
// change-event stream to keep that schema current, and executes one
// illustrative GraphQL query against the result.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	faker "github.com/go-faker/faker/v4"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/foretagq/typedstore/internal/reload"
	"github.com/foretagq/typedstore/internal/reqcontext"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/gateway/pgjsonb"
	"github.com/foretagq/typedstore/pkg/prng"
	"github.com/foretagq/typedstore/pkg/queryir"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	defer log.Sync()

	db, err := sql.Open("pgx", connString())
	if err != nil {
		zap.L().Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	goose.SetBaseFS(pgjsonb.Migrations())
	if err := goose.SetDialect("postgres"); err != nil {
		zap.L().Fatal("goose dialect", zap.Error(err))
	}
	if err := goose.Up(db, "."); err != nil {
		zap.L().Fatal("running migrations", zap.Error(err))
	}

	gw := pgjsonb.New(db)

	// Deterministic synthetic data: seed faker's crypto source so repeated
	// runs against a fresh database produce byte-identical demo output.
	faker.SetCryptoSource(prng.New(demoSeed))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := seedDemoCatalog(ctx, db, log); err != nil {
		zap.L().Fatal("seeding demo catalog", zap.Error(err))
	}
	if err := seedDemoData(ctx, gw, log); err != nil {
		zap.L().Fatal("seeding demo data", zap.Error(err))
	}
	cancel()

	controller := reload.New(gw, log)

	events := make(chan reload.ChangeEvent, 16)
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchMetawatch(runCtx, events, log)
	go controller.StartAutoRefresh(runCtx, events)

	waitCtx, waitCancel := context.WithTimeout(runCtx, 10*time.Second)
	if err := controller.WaitUntilRefreshed(waitCtx); err != nil {
		waitCancel()
		zap.L().Fatal("initial schema load never completed", zap.Error(err))
	}
	waitCancel()

	runDemoQuery(controller, gw, log)

	<-runCtx.Done()
	log.Info("shutting down")
}

func connString() string {
	return "host=" + getenv("PGHOST", "localhost") +
		" port=" + getenv("PGPORT", "5432") +
		" user=" + getenv("PGUSER", "postgres") +
		" password=" + getenv("PGPASSWORD", "pass") +
		" dbname=" + getenv("PGDATABASE", "typedstore") +
		" sslmode=disable"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// seedDemoCatalog inserts one Account entity, one Post entity, and a
// posts relationship between them into the meta-collections, but only if
// the entities meta-collection is still empty, so re-running against an
// already-seeded database is a no-op.
func seedDemoCatalog(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE collection = $1`, catalog.EntitiesMetaCollection).Scan(&count); err != nil {
		return fmt.Errorf("checking existing catalog: %w", err)
	}
	if count > 0 {
		log.Debug("entities meta-collection already seeded, skipping")
		return nil
	}

	account := map[string]any{
		"name": "accounts",
		"schema": map[string]any{
			"properties": map[string]any{
				"first_name": map[string]any{"type": "string"},
				"status":     map[string]any{"type": "string", "enum": []string{"ACTIVE", "DISABLED"}},
			},
			"required": []string{"first_name"},
		},
	}
	post := map[string]any{
		"name": "posts",
		"schema": map[string]any{
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		},
	}
	rel := map[string]any{
		"name":      "posts",
		"edge":      "accounts_posts_edge",
		"from":      "accounts",
		"to":        "posts",
		"type":      "one_to_many",
		"direction": "outbound",
	}

	for _, doc := range []struct {
		collection string
		body       map[string]any
	}{
		{catalog.EntitiesMetaCollection, account},
		{catalog.EntitiesMetaCollection, post},
		{catalog.RelationshipsMetaCollection, rel},
	} {
		raw, err := json.Marshal(doc.body)
		if err != nil {
			return fmt.Errorf("encoding seed document: %w", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO documents (collection, doc) VALUES ($1, $2)`, doc.collection, raw); err != nil {
			return fmt.Errorf("inserting seed document into %s: %w", doc.collection, err)
		}
	}

	log.Info("seeded demo catalog", zap.Int("entities", 2), zap.Int("relationships", 1))
	return nil
}

// demoSeed pins the PRNG backing the synthetic data faker generates below.
const demoSeed = 20260108

type fakeAccount struct {
	FirstName string `faker:"first_name"`
}

type fakePost struct {
	Title string `faker:"sentence"`
}

// seedDemoData inserts a handful of synthetic accounts, each with one post
// linked through the posts relationship, using the Gateway exactly as the
// resolvers would: emitted queryir text plus bindings. Skipped once the
// accounts collection is non-empty.
func seedDemoData(ctx context.Context, gw *pgjsonb.Gateway, log *zap.Logger) error {
	existing, err := gw.ListDocuments(ctx, "accounts")
	if err != nil {
		return fmt.Errorf("checking existing accounts: %w", err)
	}
	if len(existing) > 0 {
		log.Debug("accounts collection already seeded, skipping")
		return nil
	}

	const numAccounts = 3
	for i := 0; i < numAccounts; i++ {
		var acct fakeAccount
		if err := faker.FakeData(&acct); err != nil {
			return fmt.Errorf("generating fake account: %w", err)
		}

		createAccount := &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "accounts", CreatesPayload: `{"first_name": @arg_1_first_name}`}
		text, err := queryir.Emit(createAccount)
		if err != nil {
			return fmt.Errorf("emitting account create: %w", err)
		}
		rows, err := gw.Submit(ctx, text, map[string]any{"@collection": "accounts", "arg_1_first_name": acct.FirstName})
		if err != nil {
			return fmt.Errorf("inserting account: %w", err)
		}
		accountKey := rows[0]["_key"]

		var post fakePost
		if err := faker.FakeData(&post); err != nil {
			return fmt.Errorf("generating fake post: %w", err)
		}
		createPost := &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "posts", CreatesPayload: `{"title": @arg_1_title}`}
		text, err = queryir.Emit(createPost)
		if err != nil {
			return fmt.Errorf("emitting post create: %w", err)
		}
		rows, err = gw.Submit(ctx, text, map[string]any{"@collection": "posts", "arg_1_title": post.Title})
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
		postKey := rows[0]["_key"]

		edge := &queryir.Query{ID: 1, Method: queryir.MethodCreateRelationship, Collection: "accounts_posts_edge", FromBind: "__from", ToBind: "__to"}
		text, err = queryir.Emit(edge)
		if err != nil {
			return fmt.Errorf("emitting relationship create: %w", err)
		}
		if _, err := gw.Submit(ctx, text, map[string]any{
			"@collection": "accounts_posts_edge",
			"__from":      fmt.Sprintf("accounts/%v", accountKey),
			"__to":        fmt.Sprintf("posts/%v", postKey),
		}); err != nil {
			return fmt.Errorf("inserting relationship: %w", err)
		}
	}

	log.Info("seeded demo data", zap.Int("accounts", numAccounts))
	return nil
}

// watchMetawatch dials metawatch's TCP change-event feed and forwards
// every decoded event onto events, reconnecting with a backoff until ctx
// is cancelled.
func watchMetawatch(ctx context.Context, events chan<- reload.ChangeEvent, log *zap.Logger) {
	addr := getenv("METAWATCH_ADDR", "localhost:9100")
	wlog := log.Named("metawatch")

	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			wlog.Warn("failed to connect, retrying in 5s", zap.String("addr", addr), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		dec := json.NewDecoder(conn)
		for {
			var ev struct {
				Table string `json:"table"`
			}
			if err := dec.Decode(&ev); err != nil {
				if err != io.EOF {
					wlog.Warn("decode error", zap.Error(err))
				}
				break
			}
			select {
			case events <- reload.ChangeEvent{Table: ev.Table}:
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
		conn.Close()
	}
}

func runDemoQuery(controller *reload.Controller, gw *pgjsonb.Gateway, log *zap.Logger) {
	rc := reqcontext.New(gw, nil, log)
	result := graphql.Do(graphql.Params{
		Schema:        controller.Current().GraphQL,
		RequestString: `{ getAllAccounts { _key first_name status posts { title } } }`,
		Context:       rc.Attach(context.Background()),
	})
	if len(result.Errors) > 0 {
		log.Error("demo query returned errors", zap.Any("errors", result.Errors))
		return
	}
	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		log.Error("marshaling demo query result", zap.Error(err))
		return
	}
	fmt.Println(string(out))
}
