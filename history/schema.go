package history

var (
	flagSetup = `
CREATE TABLE IF NOT EXISTS Flags (
    FlagName TEXT NOT NULL PRIMARY KEY,
    FlagValue INTEGER NOT NULL
);
INSERT INTO Flags (FlagName, FlagValue) VALUES ('CurrentVersion', 0);
`
	version1 = `
CREATE TABLE IF NOT EXISTS Outcomes (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    Kind TEXT NOT NULL,
    Winner TEXT NOT NULL,
    PlayerA TEXT NOT NULL,
    PlayerB TEXT NOT NULL,
    RevealerA TEXT NOT NULL DEFAULT '',
    ChoiceA INTEGER NOT NULL DEFAULT -1,
    RevealerB TEXT NOT NULL DEFAULT '',
    ChoiceB INTEGER NOT NULL DEFAULT -1,
    Pot TEXT NOT NULL,
    Reason TEXT NOT NULL DEFAULT '',
    SettledAt INTEGER NOT NULL,
    TxID TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_outcomes_winner ON Outcomes(Winner);
`
	version2 = `
CREATE INDEX IF NOT EXISTS idx_outcomes_settled ON Outcomes(SettledAt);
`
	schemaList = []string{version1, version2}
)
