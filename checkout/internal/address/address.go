package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/form"
	"github.com/Alturino/storefront/checkout/internal/otel"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
)

// Address is the part of a shipping address a postal code resolves to.
type Address struct {
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Region       string `json:"region"`
}

type Lookup interface {
	Lookup(c context.Context, postalCode string) (Address, error)
}

type viaCepResponse struct {
	Cep         string      `json:"cep"`
	Logradouro  string      `json:"logradouro"`
	Complemento string      `json:"complemento"`
	Bairro      string      `json:"bairro"`
	Localidade  string      `json:"localidade"`
	Uf          string      `json:"uf"`
	Erro        interface{} `json:"erro"`
}

func (r viaCepResponse) notFound() bool {
	switch erro := r.Erro.(type) {
	case bool:
		return erro
	case string:
		return strings.EqualFold(erro, "true")
	default:
		return false
	}
}

// HTTPLookup resolves postal codes against a ViaCEP compatible service.
type HTTPLookup struct {
	client  *http.Client
	baseURL string
}

func NewHTTPLookup(client *http.Client, baseURL string) *HTTPLookup {
	return &HTTPLookup{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *HTTPLookup) Lookup(c context.Context, postalCode string) (Address, error) {
	c, span := otel.Tracer.Start(c, "HTTPLookup Lookup")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "HTTPLookup Lookup").
		Str(log.KeyPostalCode, postalCode).
		Logger()

	normalized, err := form.NormalizePostalCode(postalCode)
	if err != nil {
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	digits := strings.ReplaceAll(normalized, "-", "")

	logger = logger.With().Str(log.KeyProcess, "requesting postal code").Logger()
	logger.Info().Msg("requesting postal code")
	url := fmt.Sprintf("%s/%s/json/", l.baseURL, digits)
	req, err := http.NewRequestWithContext(c, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed requesting postal code with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyResponseStatus, resp.StatusCode).Logger()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		err = fmt.Errorf("postal code=%s with error=%w", normalized, checkoutErrors.ErrPostalCodeNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		err = fmt.Errorf("postal code=%s with error=%w", normalized, checkoutErrors.ErrInvalidPostalCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		err = fmt.Errorf("postal code service responded status=%d", resp.StatusCode)
	}
	if err != nil {
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	logger.Info().Msg("requested postal code")

	logger = logger.With().Str(log.KeyProcess, "decoding postal code").Logger()
	body := viaCepResponse{}
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		err = fmt.Errorf("failed decoding postal code response with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	if body.notFound() {
		err = fmt.Errorf("postal code=%s with error=%w", normalized, checkoutErrors.ErrPostalCodeNotFound)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Address{}, err
	}
	logger.Info().Msg("decoded postal code")

	return Address{
		PostalCode:   normalized,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		Region:       strings.ToUpper(body.Uf),
	}, nil
}

// Static serves a fixed set of addresses keyed by normalised postal code.
type Static map[string]Address

func (s Static) Lookup(_ context.Context, postalCode string) (Address, error) {
	normalized, err := form.NormalizePostalCode(postalCode)
	if err != nil {
		return Address{}, err
	}
	addr, ok := s[normalized]
	if !ok {
		return Address{}, fmt.Errorf("postal code=%s with error=%w", normalized, checkoutErrors.ErrPostalCodeNotFound)
	}
	addr.PostalCode = normalized
	return addr, nil
}

var (
	_ Lookup = (*HTTPLookup)(nil)
	_ Lookup = Static{}
)
