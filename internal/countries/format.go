package countries

import (
	"bytes"
	"encoding/json"
	"strings"
)

const notAvailable = "N/A"

type apiCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2        string          `json:"cca2"`
	CCA3        string          `json:"cca3"`
	CCN3        string          `json:"ccn3"`
	Region      string          `json:"region"`
	Subregion   string          `json:"subregion"`
	Capital     []string        `json:"capital"`
	CapitalInfo json.RawMessage `json:"capitalInfo"`
	Population  int64           `json:"population"`
	Flags       struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"flags"`
	Currencies json.RawMessage `json:"currencies"`
	Languages  json.RawMessage `json:"languages"`
	Maps       struct {
		GoogleMaps     string `json:"googleMaps"`
		OpenStreetMaps string `json:"openStreetMaps"`
	} `json:"maps"`
	Continents  []string  `json:"continents"`
	Area        float64   `json:"area"`
	LatLng      []float64 `json:"latlng"`
	Borders     []string  `json:"borders"`
	Landlocked  bool      `json:"landlocked"`
	Independent bool      `json:"independent"`
	UNMember    bool      `json:"unMember"`
	Timezones   []string  `json:"timezones"`
	TLD         []string  `json:"tld"`
	IDD         struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
	Demonyms     json.RawMessage `json:"demonyms"`
	Translations json.RawMessage `json:"translations"`
	Gini         json.RawMessage `json:"gini"`
	FIFA         string          `json:"fifa"`
	StartOfWeek  string          `json:"startOfWeek"`
	PostalCode   json.RawMessage `json:"postalCode"`
	CoatOfArms   struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"coatOfArms"`
}

type currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type MapLinks struct {
	GoogleMaps     string `json:"googleMaps"`
	OpenStreetMaps string `json:"openStreetMaps"`
}

// Summary is the list view of a catalog country.
type Summary struct {
	CommonName     string    `json:"nome_comum"`
	OfficialName   string    `json:"nome_oficial"`
	Code           string    `json:"codigo_pais"`
	CapitalLatLng  []float64 `json:"capitalInfo"`
	Region         string    `json:"regiao"`
	Subregion      string    `json:"sub_regiao"`
	Capital        string    `json:"capital"`
	Population     int64     `json:"populacao"`
	FlagPNG        string    `json:"bandeira_png"`
	FlagSVG        string    `json:"bandeira_svg"`
	Currency       string    `json:"moeda"`
	CurrencySymbol string    `json:"simbolo_moeda"`
	Language       string    `json:"idioma"`
	Maps           MapLinks  `json:"mapas"`
}

// Details is the full view of a single catalog country.
type Details struct {
	CommonName     string            `json:"nome_comum"`
	OfficialName   string            `json:"nome_oficial"`
	Alpha2         string            `json:"codigo_pais_2"`
	Alpha3         string            `json:"codigo_pais_3"`
	NumericCode    string            `json:"codigo_numerico"`
	Region         string            `json:"regiao"`
	Subregion      string            `json:"sub_regiao"`
	Capital        string            `json:"capital"`
	Continent      string            `json:"continente"`
	Currency       string            `json:"moeda"`
	CurrencySymbol string            `json:"simbolo_moeda"`
	FlagPNG        string            `json:"link_png"`
	FlagSVG        string            `json:"link_svg"`
	GoogleMapsURL  string            `json:"link_googlemaps"`
	OpenStreetMaps string            `json:"link_openstreetmaps"`
	Population     int64             `json:"populacao"`
	Area           float64           `json:"area"`
	LatLng         []float64         `json:"coordenadas"`
	Borders        []string          `json:"fronteiras"`
	Landlocked     bool              `json:"sem_litoral"`
	Independent    bool              `json:"independente"`
	UNMember       bool              `json:"membro_onu"`
	Timezones      []string          `json:"fusos_horarios"`
	TLD            []string          `json:"dominio_internet"`
	PhoneCode      string            `json:"codigo_telefone"`
	Languages      map[string]string `json:"idiomas"`
	Demonyms       json.RawMessage   `json:"demonyms"`
	Translations   json.RawMessage   `json:"traducoes"`
	Gini           json.RawMessage   `json:"gini"`
	FIFA           string            `json:"fifa"`
	StartOfWeek    string            `json:"inicio_semana"`
	CapitalInfo    json.RawMessage   `json:"info_capital"`
	PostalCode     json.RawMessage   `json:"codigo_postal"`
	CoatOfArmsPNG  string            `json:"coat_of_arms_png"`
	CoatOfArmsSVG  string            `json:"coat_of_arms_svg"`
}

func summarize(raw []apiCountry) []Summary {
	out := make([]Summary, len(raw))
	for i := range raw {
		out[i] = summary(raw[i])
	}
	return out
}

func summary(c apiCountry) Summary {
	cur := firstCurrency(c.Currencies)
	var capitalInfo struct {
		LatLng []float64 `json:"latlng"`
	}
	_ = json.Unmarshal(c.CapitalInfo, &capitalInfo)
	if capitalInfo.LatLng == nil {
		capitalInfo.LatLng = []float64{}
	}

	return Summary{
		CommonName:     orNA(c.Name.Common),
		OfficialName:   orNA(c.Name.Official),
		Code:           orNA(c.CCA2),
		CapitalLatLng:  capitalInfo.LatLng,
		Region:         orNA(c.Region),
		Subregion:      orNA(c.Subregion),
		Capital:        orNA(first(c.Capital)),
		Population:     c.Population,
		FlagPNG:        c.Flags.PNG,
		FlagSVG:        c.Flags.SVG,
		Currency:       orNA(cur.Name),
		CurrencySymbol: orNA(cur.Symbol),
		Language:       orNA(firstLanguage(c.Languages)),
		Maps: MapLinks{
			GoogleMaps:     orNA(c.Maps.GoogleMaps),
			OpenStreetMaps: orNA(c.Maps.OpenStreetMaps),
		},
	}
}

func detail(c apiCountry) Details {
	cur := firstCurrency(c.Currencies)
	languages := map[string]string{}
	_ = json.Unmarshal(c.Languages, &languages)
	startOfWeek := c.StartOfWeek
	if startOfWeek == "" {
		startOfWeek = "monday"
	}

	return Details{
		CommonName:     orNA(c.Name.Common),
		OfficialName:   orNA(c.Name.Official),
		Alpha2:         orNA(c.CCA2),
		Alpha3:         orNA(c.CCA3),
		NumericCode:    orNA(c.CCN3),
		Region:         orNA(c.Region),
		Subregion:      orNA(c.Subregion),
		Capital:        orNA(first(c.Capital)),
		Continent:      orNA(first(c.Continents)),
		Currency:       orNA(cur.Name),
		CurrencySymbol: orNA(cur.Symbol),
		FlagPNG:        c.Flags.PNG,
		FlagSVG:        c.Flags.SVG,
		GoogleMapsURL:  c.Maps.GoogleMaps,
		OpenStreetMaps: c.Maps.OpenStreetMaps,
		Population:     c.Population,
		Area:           c.Area,
		LatLng:         nonNil(c.LatLng),
		Borders:        nonNil(c.Borders),
		Landlocked:     c.Landlocked,
		Independent:    c.Independent,
		UNMember:       c.UNMember,
		Timezones:      nonNil(c.Timezones),
		TLD:            nonNil(c.TLD),
		PhoneCode:      PhoneCode(c.IDD.Root, c.IDD.Suffixes),
		Languages:      languages,
		Demonyms:       objectOrEmpty(c.Demonyms),
		Translations:   objectOrEmpty(c.Translations),
		Gini:           objectOrEmpty(c.Gini),
		FIFA:           orNA(c.FIFA),
		StartOfWeek:    startOfWeek,
		CapitalInfo:    objectOrEmpty(c.CapitalInfo),
		PostalCode:     objectOrEmpty(c.PostalCode),
		CoatOfArmsPNG:  c.CoatOfArms.PNG,
		CoatOfArmsSVG:  c.CoatOfArms.SVG,
	}
}

// PhoneCode joins the international dialing root with its suffixes ("+55", "+1201/+1202" style).
func PhoneCode(root string, suffixes []string) string {
	switch {
	case root == "":
		return notAvailable
	case len(suffixes) == 0:
		return root
	case len(suffixes) == 1:
		return root + suffixes[0]
	default:
		return root + strings.Join(suffixes, "/")
	}
}

// FilterSubregion keeps the countries whose subregion contains needle, ignoring case.
func FilterSubregion(list []Summary, needle string) []Summary {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return list
	}
	out := make([]Summary, 0, len(list))
	for _, c := range list {
		if c.Subregion != "" && strings.Contains(strings.ToLower(c.Subregion), needle) {
			out = append(out, c)
		}
	}
	return out
}

func firstCurrency(raw json.RawMessage) currency {
	var cur currency
	if value, ok := firstValue(raw); ok {
		_ = json.Unmarshal(value, &cur)
	}
	return cur
}

func firstLanguage(raw json.RawMessage) string {
	var lang string
	if value, ok := firstValue(raw); ok {
		_ = json.Unmarshal(value, &lang)
	}
	return lang
}

// firstValue returns the first member of a JSON object in document order.
func firstValue(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	if _, err := dec.Token(); err != nil { // key
		return nil, false
	}
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

func objectOrEmpty(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return raw
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
