package service

import (
	"sort"
	"strings"
	"time"

	"petflip/internal/catalog"
	"petflip/internal/client/hypixel"
	"petflip/internal/models"
)

// exclusionMarker taints a listing: a boosted pet sells at the price of a
// higher rarity and would poison the series.
const exclusionMarker = "Tier Boost"

// SelectBest reduces a raw auction snapshot to one sample per tracked key:
// the cheapest buy-it-now listing whose lore does not carry the exclusion
// marker. Equal prices resolve to the lexicographically smallest auction
// UUID, so the output is deterministic regardless of input order.
func SelectBest(cat *catalog.Catalog, auctions []hypixel.Auction, observedAt time.Time) []models.PetPrice {
	type nameTier struct {
		name string
		tier string
	}
	tracked := make(map[nameTier]catalog.ItemKey)
	for _, key := range cat.Keys() {
		tracked[nameTier{
			name: catalog.DisplayName(key.Pet, key.Bracket),
			tier: string(key.Tier),
		}] = key
	}

	type pick struct {
		price int64
		uuid  string
	}
	best := make(map[catalog.ItemKey]pick)
	for _, a := range auctions {
		if !a.Bin {
			continue
		}
		if strings.Contains(a.ItemLore, exclusionMarker) {
			continue
		}
		key, ok := tracked[nameTier{name: a.ItemName, tier: a.Tier}]
		if !ok {
			continue
		}
		cur, seen := best[key]
		if !seen || a.StartingBid < cur.price ||
			(a.StartingBid == cur.price && a.UUID < cur.uuid) {
			best[key] = pick{price: a.StartingBid, uuid: a.UUID}
		}
	}

	out := make([]models.PetPrice, 0, len(best))
	for key, p := range best {
		out = append(out, models.PetPrice{
			PetName:     key.Pet,
			Tier:        string(key.Tier),
			Bracket:     string(key.Bracket),
			Price:       p.price,
			AuctionUUID: p.uuid,
			ObservedAt:  observedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PetName != out[j].PetName {
			return out[i].PetName < out[j].PetName
		}
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Bracket < out[j].Bracket
	})
	return out
}
