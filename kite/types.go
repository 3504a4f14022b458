package kite

import "encoding/json"

// envelope is the wrapper every Kite Connect response uses
type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	ErrorType string          `json:"error_type,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// UserSession is the payload returned by the /session/token exchange
type UserSession struct {
	AccessToken   string   `json:"access_token"`
	RefreshToken  string   `json:"refresh_token,omitempty"`
	PublicToken   string   `json:"public_token,omitempty"`
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserShortName string   `json:"user_shortname"`
	Email         string   `json:"email"`
	UserType      string   `json:"user_type"`
	Broker        string   `json:"broker"`
	Exchanges     []string `json:"exchanges,omitempty"`
	Products      []string `json:"products,omitempty"`
	OrderTypes    []string `json:"order_types,omitempty"`
	AvatarURL     string   `json:"avatar_url"`
}

// Profile is the payload returned by /user/profile
type Profile struct {
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserShortName string   `json:"user_shortname"`
	Email         string   `json:"email"`
	UserType      string   `json:"user_type"`
	Broker        string   `json:"broker"`
	Exchanges     []string `json:"exchanges"`
	Products      []string `json:"products"`
	OrderTypes    []string `json:"order_types"`
	AvatarURL     string   `json:"avatar_url"`
}

// Holding is one entry of /portfolio/holdings
type Holding struct {
	TradingSymbol       string  `json:"tradingsymbol"`
	Exchange            string  `json:"exchange"`
	InstrumentToken     int64   `json:"instrument_token"`
	ISIN                string  `json:"isin"`
	Product             string  `json:"product"`
	Price               float64 `json:"price"`
	Quantity            int64   `json:"quantity"`
	UsedQuantity        int64   `json:"used_quantity"`
	T1Quantity          int64   `json:"t1_quantity"`
	RealisedQuantity    int64   `json:"realised_quantity"`
	AuthorisedQuantity  int64   `json:"authorised_quantity"`
	AuthorisedDate      string  `json:"authorised_date"`
	OpeningQuantity     int64   `json:"opening_quantity"`
	CollateralQuantity  int64   `json:"collateral_quantity"`
	CollateralType      string  `json:"collateral_type"`
	Discrepancy         bool    `json:"discrepancy"`
	AveragePrice        float64 `json:"average_price"`
	LastPrice           float64 `json:"last_price"`
	ClosePrice          float64 `json:"close_price"`
	PnL                 float64 `json:"pnl"`
	DayChange           float64 `json:"day_change"`
	DayChangePercentage float64 `json:"day_change_percentage"`
}

type legacyLoginData struct {
	RequestToken string `json:"request_token"`
}
