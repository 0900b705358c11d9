package api

// these are the models that are received from and sent to the client. They
// are distinct from the export records, which are closer to the format they
// are stored in.

type InfoModel struct {
	Version struct {
		Server  string `json:"server"`
		SentGen string `json:"sentgen"`
	} `json:"version"`
	Grammars []string `json:"grammars"`
}

type BoundsModel struct {
	MaxExpansions int `json:"max_expansions"`
	MaxDepth      int `json:"max_depth"`
}

type FilterModel struct {
	MinWords int `json:"min_words"`
	MaxWords int `json:"max_words"`
}

type GrammarModel struct {
	Name        string      `json:"name"`
	Class       string      `json:"class"`
	Start       string      `json:"start"`
	Description string      `json:"description,omitempty"`
	Rules       int         `json:"rules"`
	Bounds      BoundsModel `json:"bounds"`
	Filter      FilterModel `json:"filter"`
}

type SentenceModel struct {
	URI     string `json:"uri"`
	ID      string `json:"id"`
	Grammar string `json:"grammar"`
	Text    string `json:"text"`
	Words   int    `json:"words"`
	Seed    int64  `json:"seed"`
	Repairs int    `json:"repairs"`
	Created string `json:"created"`
}

type SentencesRequest struct {
	Grammar       string `json:"grammar"`
	Count         int    `json:"count"`
	Seed          *int64 `json:"seed,omitempty"`
	MaxExpansions *int   `json:"max_expansions,omitempty"`
	MaxDepth      *int   `json:"max_depth,omitempty"`
}

type SentencesResponse struct {
	Grammar     string          `json:"grammar"`
	Seed        int64           `json:"seed"`
	Sentences   []SentenceModel `json:"sentences"`
	ReplayToken string          `json:"replay_token"`
}

type ReplayRequest struct {
	Token string `json:"token"`
}

type ReplayResponse struct {
	Grammar   string       `json:"grammar"`
	Seed      int64        `json:"seed"`
	Count     int          `json:"count"`
	Bounds    *BoundsModel `json:"bounds,omitempty"`
	Sentences []string     `json:"sentences"`
}
