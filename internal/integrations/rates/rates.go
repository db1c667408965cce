package rates

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/config"
)

// ExchangeRate is the published PEN/USD reference rate pair.
type ExchangeRate struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
	Date string          `json:"date"`
}

// Client fetches the official exchange rate. The engine itself never sources
// rates; this adapter is the injected external lookup the API layer exposes.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new exchange rate client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.RatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the daily reference rate
func (c *Client) buildSOAPRequest() string {
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<TipoCambioDia xmlns="http://sbs.gob.pe/">
					<fecha>%s</fecha>
				</TipoCambioDia>
			</soap12:Body>
		</soap12:Envelope>`, date)
}

// sendRequest posts the SOAP request and returns the raw response body
func (c *Client) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("Exchange rate XML response: %s", string(body))
	return body, nil
}

// parseXMLResponse extracts the buy/sell rates from the XML payload
func (c *Client) parseXMLResponse(rawBody []byte) (ExchangeRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return ExchangeRate{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	node := doc.FindElement("//TipoCambio")
	if node == nil {
		return ExchangeRate{}, fmt.Errorf("no exchange rate data found in XML")
	}

	buyElem := node.FindElement("./Compra")
	sellElem := node.FindElement("./Venta")
	if buyElem == nil || sellElem == nil {
		return ExchangeRate{}, fmt.Errorf("rate elements not found in XML")
	}

	buy, err := decimal.NewFromString(buyElem.Text())
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("failed to parse buy rate: %w", err)
	}
	sell, err := decimal.NewFromString(sellElem.Text())
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("failed to parse sell rate: %w", err)
	}

	rate := ExchangeRate{Buy: buy, Sell: sell, Date: time.Now().Format("2006-01-02")}
	if dateElem := node.FindElement("./Fecha"); dateElem != nil {
		rate.Date = dateElem.Text()
	}
	return rate, nil
}

// GetRate retrieves the current PEN/USD reference rate
func (c *Client) GetRate() (ExchangeRate, error) {
	body, err := c.sendRequest(c.buildSOAPRequest())
	if err != nil {
		return ExchangeRate{}, err
	}

	rate, err := c.parseXMLResponse(body)
	if err != nil {
		return ExchangeRate{}, err
	}

	c.log.Infof("Retrieved exchange rate: buy %s, sell %s", rate.Buy, rate.Sell)
	return rate, nil
}
