package protocol

// Inbound system commands. Names are fixed by the host protocol.
const (
	CmdConnected       = "CONNECTED"
	CmdDisconnected    = "DISCONNECTED"
	CmdInfo            = "INFO2"
	CmdConfig          = "CONFIG"
	CmdStage           = "STAGE"
	CmdStageInfo       = "STAGE_INFO"
	CmdTimer           = "TIMER"
	CmdChoice          = "CHOICE"
	CmdTheme           = "THEME"
	CmdQuestion        = "QUESTION"
	CmdQType           = "QTYPE"
	CmdSums            = "SUMS"
	CmdPerson          = "PERSON"
	CmdPersonStake     = "PERSONSTAKE"
	CmdPass            = "PASS"
	CmdSetChooser      = "SETCHOOSER"
	CmdReady           = "READY"
	CmdReplic          = "REPLIC"
	CmdTry             = "TRY"
	CmdEndTry          = "ENDTRY"
	CmdAnswer          = "ANSWER"
	CmdRightAnswer     = "RIGHTANSWER"
	CmdStop            = "STOP"
	CmdOut             = "OUT"
	CmdFinalRound      = "FINALROUND"
	CmdFinalThink      = "FINALTHINK"
	CmdPause           = "PAUSE"
	CmdCancel          = "CANCEL"
	CmdHostname        = "HOSTNAME"
	CmdPackLogo        = "PACKLOGO"
	CmdGameThemes      = "GAMETHEMES"
	CmdRoundThemes     = "ROUNDTHEMES"
	CmdQuestionCaption = "QUESTIONCAPTION"
	CmdShowTable       = "SHOWTABLE"
	CmdTimeout         = "TIMEOUT"
	CmdAtom            = "ATOM"
	CmdWinner          = "WINNER"
	CmdPicture         = "PICTURE"
	CmdBanned          = "BANNED"
	CmdWrongTry        = "WRONGTRY"
)

// CONFIG subcommands.
const (
	ConfigAddTable    = "ADDTABLE"
	ConfigFree        = "FREE"
	ConfigDeleteTable = "DELETETABLE"
	ConfigSet         = "SET"
	ConfigChangeType  = "CHANGETYPE"
)

// TIMER subcommands.
const (
	TimerGo         = "GO"
	TimerStop       = "STOP"
	TimerPause      = "PAUSE"
	TimerUserPause  = "USER_PAUSE"
	TimerResume     = "RESUME"
	TimerUserResume = "USER_RESUME"
	TimerMaxTime    = "MAXTIME"
)

// Outbound commands a client issues. Fire-and-forget, no ack contract.
const (
	CmdOutChoice = "CHOICE"
	CmdOutAnswer = "ANSWER"
	CmdOutPass   = "PASS"
	CmdOutReady  = "READY"
	CmdOutStake  = "STAKE"
	CmdOutDelete = "DELETE"
	CmdOutInfo   = "INFO"
	CmdOutI      = "I"
)

// Roles as they appear in CONFIG / CONNECTED arguments.
const (
	WireShowman = "showman"
	WirePlayer  = "player"
	WireViewer  = "viewer"
)
