package currency

import "sort"

// UnitInfo is the roster metadata for one user: display fields plus the
// organizational grouping keys used by commander dashboards.
type UnitInfo struct {
	Name    string `json:"name"`
	Rank    string `json:"rank"`
	Platoon string `json:"platoon"`
	SubUnit string `json:"sub_unit"`
}

// PersonnelStatus is a currency status joined back to roster metadata.
type PersonnelStatus struct {
	Status
	UnitInfo
}

// StatusCounts is the basic current / not-current / expiring-soon reduction.
type StatusCounts struct {
	Total        int `json:"total"`
	Current      int `json:"current"`
	NotCurrent   int `json:"not_current"`
	ExpiringSoon int `json:"expiring_soon"`
}

// TeamSummary is the commander view over a set of statuses.
type TeamSummary struct {
	Overall      StatusCounts                 `json:"overall"`
	ByVehicle    map[VehicleType]StatusCounts `json:"by_vehicle"`
	ByPlatoon    map[string]StatusCounts      `json:"by_platoon"`
	NotCurrent   []PersonnelStatus            `json:"not_current"`
	ExpiringSoon []PersonnelStatus            `json:"expiring_soon"`
}

// expiringSoon reports whether st counts toward the warning bucket: current,
// with a known expiry no more than horizon days out and not already past.
func expiringSoon(st Status, horizonDays int) bool {
	return st.Current && st.ExpiryKnown && st.DaysToExpiry >= 0 && st.DaysToExpiry <= horizonDays
}

func (c *StatusCounts) add(st Status, horizonDays int) {
	c.Total++
	if st.Current {
		c.Current++
	} else {
		c.NotCurrent++
	}
	if expiringSoon(st, horizonDays) {
		c.ExpiringSoon++
	}
}

// SummarizeTeam joins statuses to roster metadata by username and reduces
// them into overall, per-vehicle and per-platoon counts, plus the personnel
// lists dashboards surface for follow-up. Users missing from the roster are
// still counted, with empty unit metadata. Output is independent of input
// order: the same multiset of statuses always produces the same summary.
func SummarizeTeam(statuses []Status, roster map[string]UnitInfo) TeamSummary {
	summary := TeamSummary{
		ByVehicle:    make(map[VehicleType]StatusCounts),
		ByPlatoon:    make(map[string]StatusCounts),
		NotCurrent:   []PersonnelStatus{},
		ExpiringSoon: []PersonnelStatus{},
	}

	for _, st := range statuses {
		info := roster[st.Username]

		summary.Overall.add(st, ExpiringSoonDays)

		byVehicle := summary.ByVehicle[st.VehicleType]
		byVehicle.add(st, ExpiringSoonDays)
		summary.ByVehicle[st.VehicleType] = byVehicle

		byPlatoon := summary.ByPlatoon[info.Platoon]
		byPlatoon.add(st, ExpiringSoonDays)
		summary.ByPlatoon[info.Platoon] = byPlatoon

		joined := PersonnelStatus{Status: st, UnitInfo: info}
		if !st.Current {
			summary.NotCurrent = append(summary.NotCurrent, joined)
		}
		if expiringSoon(st, ExpiringSoonDays) {
			summary.ExpiringSoon = append(summary.ExpiringSoon, joined)
		}
	}

	sortPersonnel(summary.NotCurrent)
	sortPersonnel(summary.ExpiringSoon)
	return summary
}

func sortPersonnel(list []PersonnelStatus) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Username != list[j].Username {
			return list[i].Username < list[j].Username
		}
		return list[i].VehicleType < list[j].VehicleType
	})
}
