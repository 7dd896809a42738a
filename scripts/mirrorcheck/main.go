// Command mirrorcheck compares score and settings rows in Postgres against
// their Redis mirror keys and reports any drift. With -repair, drifted
// mirrors are rewritten from Postgres, which is the source of truth.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
)

type check struct {
	UserID        string
	Key           string
	RowCount      int
	MirrorPresent bool
	Match         bool
	Repaired      bool
	Error         error
}

func main() {
	var (
		dsn       string
		redisAddr string
		redisPass string
		redisDB   int
		userID    string
		repair    bool
		timeout   time.Duration
	)

	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres DSN")
	flag.StringVar(&redisAddr, "redis", "localhost:6379", "Redis address")
	flag.StringVar(&redisPass, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	flag.IntVar(&redisDB, "redis-db", 0, "Redis database")
	flag.StringVar(&userID, "user", "", "Check a single user ID")
	flag.BoolVar(&repair, "repair", false, "Rewrite drifted mirrors from Postgres")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no Postgres DSN: set -dsn or DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr, Password: redisPass, DB: redisDB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("connect redis: %v", err)
	}

	users, err := loadUsers(ctx, db, userID)
	if err != nil {
		log.Fatalf("load users: %v", err)
	}

	var (
		checks  []check
		drifted int
	)
	for _, uid := range users {
		for _, c := range checkUser(ctx, db, rdb, uid, repair) {
			if c.Error != nil || !c.Match {
				drifted++
			}
			checks = append(checks, c)
		}
	}

	printReport(checks)

	fmt.Printf("Users: %d, Drifted keys: %d\n", len(users), drifted)
	if drifted > 0 && !repair {
		os.Exit(1)
	}
}

func loadUsers(ctx context.Context, db *sqlx.DB, userID string) ([]string, error) {
	if userID != "" {
		return []string{userID}, nil
	}
	var ids []string
	err := db.SelectContext(ctx, &ids, "SELECT id FROM users WHERE active = TRUE ORDER BY created_at")
	return ids, err
}

func checkUser(ctx context.Context, db *sqlx.DB, rdb *redis.Client, uid string, repair bool) []check {
	return []check{
		checkScores(ctx, db, rdb, uid, repair),
		checkSettings(ctx, db, rdb, uid, repair),
	}
}

func checkScores(ctx context.Context, db *sqlx.DB, rdb *redis.Client, uid string, repair bool) check {
	c := check{UserID: uid, Key: repository.ScoresMirrorKey(uid)}

	var entries []models.ScoreEntry
	err := db.SelectContext(ctx, &entries,
		"SELECT * FROM score_entries WHERE user_id = $1 ORDER BY timestamp DESC, created_at DESC", uid)
	if err != nil {
		c.Error = fmt.Errorf("query scores: %w", err)
		return c
	}
	c.RowCount = len(entries)
	if entries == nil {
		entries = []models.ScoreEntry{}
	}

	rows, err := json.Marshal(entries)
	if err != nil {
		c.Error = err
		return c
	}
	return compareAndRepair(ctx, rdb, c, rows, repair)
}

func checkSettings(ctx context.Context, db *sqlx.DB, rdb *redis.Client, uid string, repair bool) check {
	c := check{UserID: uid, Key: repository.SettingsMirrorKey(uid)}

	var doc []byte
	err := db.GetContext(ctx, &doc, "SELECT document FROM user_settings WHERE user_id = $1", uid)
	if errors.Is(err, sql.ErrNoRows) {
		// Unsaved settings resolve to defaults on read, so the mirror may
		// legitimately hold the default document.
		defaults, mErr := json.Marshal(models.DefaultSettings())
		if mErr != nil {
			c.Error = mErr
			return c
		}
		doc = defaults
	} else if err != nil {
		c.Error = fmt.Errorf("query settings: %w", err)
		return c
	} else {
		c.RowCount = 1
	}
	return compareAndRepair(ctx, rdb, c, doc, repair)
}

func compareAndRepair(ctx context.Context, rdb *redis.Client, c check, want []byte, repair bool) check {
	mirror, err := rdb.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.Match = c.RowCount == 0
	} else if err != nil {
		c.Error = fmt.Errorf("read mirror: %w", err)
		return c
	} else {
		c.MirrorPresent = true
		c.Match = documentsEqual(want, mirror)
	}

	if !c.Match && repair {
		if err := rdb.Set(ctx, c.Key, want, 0).Err(); err != nil {
			c.Error = fmt.Errorf("repair mirror: %w", err)
			return c
		}
		c.Repaired = true
	}
	return c
}

func documentsEqual(a, b []byte) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(aj, bj)
}

func printReport(results []check) {
	fmt.Println("Mirror Check Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Repaired:
			status = "REPAIRED"
		case !res.Match:
			status = "DRIFT"
		}
		fmt.Printf("[%s] %s\n", status, res.Key)
		fmt.Printf("  Rows: %d | Mirror present: %t\n", res.RowCount, res.MirrorPresent)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
