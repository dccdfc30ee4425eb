package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rollup is the financial and severity summary of one inspection's repair items.
type Rollup struct {
	IdentifiedTotal decimal.Decimal
	AuthorisedTotal decimal.Decimal
	DeclinedTotal   decimal.Decimal
	Severity        Severity
	ItemCount       int
	AuthorisedCount int
	// NonGroupItems drive labour/parts progress; TopLevelItems drive authorisation.
	NonGroupItems []RepairItem
	TopLevelItems []RepairItem
	// AuthorisedTopLevel holds the top-level items that count as authorised,
	// including groups authorised only through their children.
	AuthorisedTopLevel map[uuid.UUID]bool
}

// Rollups indexes rollups by inspection id.
type Rollups map[uuid.UUID]Rollup

// For returns the rollup of id, or an empty rollup when no items were supplied for it.
func (r Rollups) For(id uuid.UUID) Rollup {
	return r[id]
}

// Aggregate folds a flat list of repair items into per-inspection rollups.
// Soft-deleted rows, rows without an inspection and orphaned children are skipped.
func Aggregate(items []RepairItem) Rollups {
	byID := make(map[uuid.UUID]RepairItem, len(items))
	ordered := make([]RepairItem, 0, len(items))
	for _, it := range items {
		if it.DeletedAt != nil || it.HealthCheckID == uuid.Nil {
			continue
		}
		if _, dup := byID[it.ID]; dup {
			continue
		}
		byID[it.ID] = it
		ordered = append(ordered, it)
	}

	childrenByParent := make(map[uuid.UUID][]RepairItem)
	kept := ordered[:0]
	for _, it := range ordered {
		if it.ParentID != nil {
			parent, ok := byID[*it.ParentID]
			if !ok || parent.HealthCheckID != it.HealthCheckID {
				continue
			}
			childrenByParent[parent.ID] = append(childrenByParent[parent.ID], it)
		}
		kept = append(kept, it)
	}

	acc := make(map[uuid.UUID]*Rollup)
	for _, it := range kept {
		r, ok := acc[it.HealthCheckID]
		if !ok {
			r = &Rollup{}
			acc[it.HealthCheckID] = r
		}

		if !it.IsGroup && it.OutcomeStatus != OutcomeDeleted {
			r.NonGroupItems = append(r.NonGroupItems, it)
		}
		if it.ParentID != nil {
			continue
		}
		r.TopLevelItems = append(r.TopLevelItems, it)

		var children []RepairItem
		if it.IsGroup {
			children = liveChildren(childrenByParent[it.ID])
		}
		r.addTopLevel(it, children)
	}

	out := make(Rollups, len(acc))
	for id, r := range acc {
		out[id] = *r
	}
	return out
}

func (r *Rollup) addTopLevel(it RepairItem, children []RepairItem) {
	if it.OutcomeStatus == OutcomeDeleted {
		return
	}

	total := EffectiveTotal(it)
	if it.IsGroup && total.IsZero() {
		for _, child := range children {
			total = total.Add(EffectiveTotal(child))
		}
	}

	rag := WorstRAG(it.RAGs...)
	for _, child := range children {
		rag = WorstRAG(rag, WorstRAG(child.RAGs...))
	}

	r.IdentifiedTotal = r.IdentifiedTotal.Add(total)
	r.ItemCount++
	r.Severity.Identified.add(rag)

	authorised, authorisedValue, authorisedRAG := resolveAuthorisation(it, children, total, rag)
	if authorised {
		r.AuthorisedTotal = r.AuthorisedTotal.Add(authorisedValue)
		r.AuthorisedCount++
		r.Severity.Authorised.add(authorisedRAG)
		if r.AuthorisedTopLevel == nil {
			r.AuthorisedTopLevel = make(map[uuid.UUID]bool)
		}
		r.AuthorisedTopLevel[it.ID] = true
	}

	r.DeclinedTotal = r.DeclinedTotal.Add(declinedValue(it, children, total))
}

// liveChildren drops children whose outcome is deleted.
func liveChildren(children []RepairItem) []RepairItem {
	out := make([]RepairItem, 0, len(children))
	for _, child := range children {
		if child.OutcomeStatus != OutcomeDeleted {
			out = append(out, child)
		}
	}
	return out
}

// resolveAuthorisation applies the group fallback: a group that is not itself
// authorised counts only the value of its authorised children.
func resolveAuthorisation(it RepairItem, children []RepairItem, total decimal.Decimal, rag RAG) (bool, decimal.Decimal, RAG) {
	if it.IsAuthorised() {
		return true, total, rag
	}
	if !it.IsGroup {
		return false, decimal.Zero, RAGNone
	}

	found := false
	sum := decimal.Zero
	worst := WorstRAG(it.RAGs...)
	for _, child := range children {
		if !child.IsAuthorised() {
			continue
		}
		found = true
		sum = sum.Add(EffectiveTotal(child))
		worst = WorstRAG(worst, WorstRAG(child.RAGs...))
	}
	return found, sum, worst
}

func declinedValue(it RepairItem, children []RepairItem, total decimal.Decimal) decimal.Decimal {
	if it.IsDeclined() {
		return total
	}
	if it.IsAuthorised() || !it.IsGroup {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, child := range children {
		if child.IsDeclined() {
			sum = sum.Add(EffectiveTotal(child))
		}
	}
	return sum
}
