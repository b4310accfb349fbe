package history

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commit-reveal-wager/contract"
	"commit-reveal-wager/sdk"
)

var (
	playerA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	playerB = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func resolvedOutcome() *contract.Outcome {
	return &contract.Outcome{
		Kind:      contract.OutcomeResolved,
		Winner:    playerB,
		Players:   [2]common.Address{playerA, playerB},
		Reveals:   []contract.Reveal{{Player: playerB, Choice: 1}, {Player: playerA, Choice: 0}},
		Pot:       uint256.NewInt(2000),
		SettledAt: 1_700_000_040,
		TxID:      "tx-1",
	}
}

func abandonedOutcome() *contract.Outcome {
	return &contract.Outcome{
		Kind:      contract.OutcomeAbandoned,
		Winner:    playerA,
		Players:   [2]common.Address{playerA, playerB},
		Pot:       uint256.NewInt(2000),
		Reason:    contract.AbandonReason,
		SettledAt: 1_700_000_400,
	}
}

func TestRecordOutcome(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	d := &SqliteDatabase{sqlDB: sqlx.NewDb(db, "sqlmock")}

	mock.ExpectExec("INSERT INTO Outcomes").WithArgs(
		"resolved",
		playerB.Hex(),
		playerA.Hex(),
		playerB.Hex(),
		playerB.Hex(), 1,
		playerA.Hex(), 0,
		"2000",
		"",
		int64(1_700_000_040),
		"tx-1",
	).WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO Outcomes").WithArgs(
		"abandoned",
		playerA.Hex(),
		playerA.Hex(),
		playerB.Hex(),
		"", -1,
		"", -1,
		"2000",
		contract.AbandonReason,
		int64(1_700_000_400),
		"",
	).WillReturnResult(sqlmock.NewResult(2, 1))

	assert.NoError(t, d.RecordOutcome(resolvedOutcome()))
	assert.NoError(t, d.RecordOutcome(abandonedOutcome()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAndFetchOutcomes(t *testing.T) {
	t.Parallel()
	d, err := NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.RecordOutcome(resolvedOutcome()))
	require.NoError(t, d.RecordOutcome(abandonedOutcome()))

	all, err := d.Outcomes(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "abandoned", all[0].Kind)
	require.Equal(t, -1, all[0].ChoiceA)
	require.Equal(t, contract.AbandonReason, all[0].Reason)
	require.Equal(t, "resolved", all[1].Kind)
	require.Equal(t, playerB.Hex(), all[1].RevealerA)
	require.Equal(t, 1, all[1].ChoiceA)
	require.Equal(t, "2000", all[1].Pot)

	latest, err := d.Outcomes(1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, all[0].Id, latest[0].Id)

	wins, err := d.Wins(playerB)
	require.NoError(t, err)
	require.Equal(t, 1, wins)
}

func TestReopenKeepsRecords(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	d, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, d.RecordOutcome(resolvedOutcome()))
	require.NoError(t, d.Close())

	d, err = NewDatabase(path)
	require.NoError(t, err)
	defer d.Close()
	version, err := fetchVersion(d.sqlDB)
	require.NoError(t, err)
	require.Equal(t, len(schemaList), version)
	all, err := d.Outcomes(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestControllerArchivesIntoDatabase(t *testing.T) {
	t.Parallel()
	d, err := NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer d.Close()

	store := sdk.NewMemStore()
	cfg := contract.DefaultConfig
	cfg.Stake = "10"
	ctl, err := contract.NewController(store, cfg, contract.WithArchive(d))
	require.NoError(t, err)

	tx, err := store.Begin()
	require.NoError(t, err)
	l := sdk.NewLedger(tx)
	require.NoError(t, l.Mint(playerA, uint256.NewInt(100)))
	require.NoError(t, l.Mint(playerB, uint256.NewInt(100)))
	require.NoError(t, tx.Commit())

	nonce := [32]byte{'n'}
	stake := uint256.NewInt(10)
	_, err = ctl.Register(sdk.NewEnv(playerA, stake, 100))
	require.NoError(t, err)
	_, err = ctl.Register(sdk.NewEnv(playerB, stake, 100))
	require.NoError(t, err)
	_, err = ctl.Commit(sdk.NewEnv(playerA, nil, 100), contract.CommitmentHash(1, nonce))
	require.NoError(t, err)
	// second commitment after the deadline forfeits to playerA
	_, err = ctl.Commit(sdk.NewEnv(playerB, nil, 1000), contract.CommitmentHash(1, nonce))
	require.NoError(t, err)

	all, err := d.Outcomes(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "abandoned", all[0].Kind)
	require.Equal(t, playerA.Hex(), all[0].Winner)
	require.Equal(t, "20", all[0].Pot)
}
