// Package history archives settled games in a sqlite database.
package history

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"commit-reveal-wager/contract"
)

// Record is one archived outcome as stored.
type Record struct {
	Id        int64  `db:"Id" json:"id"`
	Kind      string `db:"Kind" json:"kind"`
	Winner    string `db:"Winner" json:"winner"`
	PlayerA   string `db:"PlayerA" json:"playerA"`
	PlayerB   string `db:"PlayerB" json:"playerB"`
	RevealerA string `db:"RevealerA" json:"revealerA,omitempty"`
	ChoiceA   int    `db:"ChoiceA" json:"choiceA"`
	RevealerB string `db:"RevealerB" json:"revealerB,omitempty"`
	ChoiceB   int    `db:"ChoiceB" json:"choiceB"`
	Pot       string `db:"Pot" json:"pot"`
	Reason    string `db:"Reason" json:"reason,omitempty"`
	SettledAt int64  `db:"SettledAt" json:"settledAt"`
	TxID      string `db:"TxID" json:"txid,omitempty"`
}

type SqliteDatabase struct {
	sqlDB *sqlx.DB
	lock  sync.Mutex
}

var _ contract.Archive = (*SqliteDatabase)(nil)

// NewDatabase opens (creating if needed) the archive at path and brings its
// schema up to date.
func NewDatabase(path string) (*SqliteDatabase, error) {
	//#nosec G304
	if _, err := os.Stat(path); err != nil {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		f.Close()
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := dbInit(db, schemaList); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteDatabase{sqlDB: db}, nil
}

func dbInit(db *sqlx.DB, schemaList []string) error {
	version, err := fetchVersion(db)
	if err != nil {
		return err
	}
	for index, schema := range schemaList {
		if index+1 > version {
			if err := executeSchema(db, schema, index+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func fetchVersion(db *sqlx.DB) (int, error) {
	flagValue := make([]int, 0)
	err := db.Select(&flagValue, "SELECT FlagValue FROM Flags WHERE FlagName = 'CurrentVersion'")
	if err != nil {
		if !strings.Contains(err.Error(), "no such table") {
			return 0, err
		}
		if _, err = db.Exec(flagSetup); err != nil {
			return 0, err
		}
		if err = db.Select(&flagValue, "SELECT FlagValue FROM Flags WHERE FlagName = 'CurrentVersion'"); err != nil {
			return 0, err
		}
	}
	if len(flagValue) == 0 {
		return 0, fmt.Errorf("no version found")
	}
	return flagValue[0], nil
}

// executeSchema applies one schema step and bumps the version atomically.
func executeSchema(db *sqlx.DB, schema string, version int) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.Exec(schema); err != nil {
		return err
	}
	if _, err = tx.Exec("UPDATE Flags SET FlagValue = ? WHERE FlagName = 'CurrentVersion'", version); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *SqliteDatabase) Close() error {
	return d.sqlDB.Close()
}

// RecordOutcome implements contract.Archive.
func (d *SqliteDatabase) RecordOutcome(o *contract.Outcome) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	query := `INSERT INTO Outcomes (
        Kind, Winner, PlayerA, PlayerB, RevealerA, ChoiceA, RevealerB, ChoiceB, Pot, Reason, SettledAt, TxID
    ) VALUES (
        :Kind, :Winner, :PlayerA, :PlayerB, :RevealerA, :ChoiceA, :RevealerB, :ChoiceB, :Pot, :Reason, :SettledAt, :TxID
    )`
	_, err := d.sqlDB.NamedExec(query, recordParams(o))
	return err
}

func recordParams(o *contract.Outcome) map[string]interface{} {
	revealer := func(i int) (string, int) {
		if i >= len(o.Reveals) {
			return "", -1
		}
		return o.Reveals[i].Player.Hex(), int(o.Reveals[i].Choice)
	}
	revealerA, choiceA := revealer(0)
	revealerB, choiceB := revealer(1)
	pot := "0"
	if o.Pot != nil {
		pot = o.Pot.ToBig().String()
	}
	return map[string]interface{}{
		"Kind":      o.Kind.String(),
		"Winner":    o.Winner.Hex(),
		"PlayerA":   o.Players[0].Hex(),
		"PlayerB":   o.Players[1].Hex(),
		"RevealerA": revealerA,
		"ChoiceA":   choiceA,
		"RevealerB": revealerB,
		"ChoiceB":   choiceB,
		"Pot":       pot,
		"Reason":    o.Reason,
		"SettledAt": int64(o.SettledAt),
		"TxID":      o.TxID,
	}
}

// Outcomes returns the most recent records first. limit <= 0 returns all.
func (d *SqliteDatabase) Outcomes(limit int) ([]*Record, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if limit <= 0 {
		limit = -1
	}
	out := make([]*Record, 0)
	err := d.sqlDB.Select(&out, "SELECT * FROM Outcomes ORDER BY Id DESC LIMIT ?", limit)
	return out, err
}

// Wins counts the resolved and abandoned games paid to addr.
func (d *SqliteDatabase) Wins(addr common.Address) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	var n int
	err := d.sqlDB.Get(&n, "SELECT COUNT(*) FROM Outcomes WHERE Winner = ?", addr.Hex())
	return n, err
}
