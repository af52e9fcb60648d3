package model

// Asset names a fungible balance kind tracked by the ledger.
type Asset string

const (
	AssetA Asset = "A"
	AssetB Asset = "B"
)

// ShareAsset returns the liquidity share asset issued by the named pool.
func ShareAsset(pool string) Asset {
	return Asset("LP:" + pool)
}

// Direction tags a swap by its input and output asset.
type Direction string

const (
	AForB Direction = "AforB"
	BForA Direction = "BforA"
)

// Input returns the asset paid into the pool.
func (d Direction) Input() Asset {
	if d == BForA {
		return AssetB
	}
	return AssetA
}

// Output returns the asset paid out of the pool.
func (d Direction) Output() Asset {
	if d == BForA {
		return AssetA
	}
	return AssetB
}

// Reverse returns the opposite swap direction.
func (d Direction) Reverse() Direction {
	if d == BForA {
		return AForB
	}
	return BForA
}
