package main

import (
	"github.com/dyverify/arachne/internal/compromise"
	"github.com/dyverify/arachne/internal/heuristic"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/unify"
)

func intToMode(v int) unify.Mode {
	switch v {
	case 1:
		return unify.BasicTypeFlaw
	case 2:
		return unify.AnyTypeFlaw
	default:
		return unify.Strict
	}
}

func intToPrune(v int) switches.Prune {
	switch v {
	case 1:
		return switches.PruneBounds
	case 2:
		return switches.PruneBoundsAndTheorems
	case 3:
		return switches.PruneAll
	default:
		return switches.PruneNone
	}
}

func intToMask(v int) heuristic.Mask {
	return heuristic.Mask(v)
}

func intToPartnerDef(v int) compromise.PartnerDef {
	switch v {
	case 1:
		return compromise.PartnerMatchingHistories
	case 2:
		return compromise.PartnerSID
	case 3:
		return compromise.PartnerMList
	case 4:
		return compromise.PartnerCrypto
	case 5:
		return compromise.PartnerCK2001
	default:
		return compromise.PartnerOverlap
	}
}

func intToLKRMode(v int) compromise.LKRMode {
	return compromise.LKRMode(v)
}
