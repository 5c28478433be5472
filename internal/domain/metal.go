package domain

import (
	"fmt"
	"strings"
)

// Metal is the physical metal behind a MetalKind.
type Metal string

const (
	Gold      Metal = "gold"
	Silver    Metal = "silver"
	Platinum  Metal = "platinum"
	Palladium Metal = "palladium"
)

// MetalKind identifies a priced market instrument.
type MetalKind string

const (
	GoldSpot      MetalKind = "gold-spot"
	SilverSpot    MetalKind = "silver-spot"
	PlatinumSpot  MetalKind = "platinum-spot"
	PalladiumSpot MetalKind = "palladium-spot"
	// GoldThai965 is the regional variant: 96.5% bar gold priced by the Thai gold market.
	GoldThai965 MetalKind = "gold-thai-965"
)

// MetalKinds lists every kind in market board order.
var MetalKinds = []MetalKind{GoldSpot, SilverSpot, PlatinumSpot, PalladiumSpot, GoldThai965}

type kindInfo struct {
	metal   Metal
	symbol  string
	display string
}

var kinds = map[MetalKind]kindInfo{
	GoldSpot:      {Gold, "XAU", "Gold Spot"},
	SilverSpot:    {Silver, "XAG", "Silver Spot"},
	PlatinumSpot:  {Platinum, "XPT", "Platinum Spot"},
	PalladiumSpot: {Palladium, "XPD", "Palladium Spot"},
	GoldThai965:   {Gold, "", "Thai Gold 96.5%"},
}

// Valid reports whether k is a known kind.
func (k MetalKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Metal returns the underlying metal.
func (k MetalKind) Metal() Metal { return kinds[k].metal }

// Symbol returns the spot provider symbol. The regional variant has none.
func (k MetalKind) Symbol() string { return kinds[k].symbol }

// DisplayName returns the human-readable name.
func (k MetalKind) DisplayName() string { return kinds[k].display }

// IsRegional reports whether the kind is priced by the regional market source.
func (k MetalKind) IsRegional() bool { return k == GoldThai965 }

// ParseMetalKind validates a kind string.
func ParseMetalKind(s string) (MetalKind, error) {
	k := MetalKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown metal kind %q", ErrInvalidInput, s)
	}
	return k, nil
}
