/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#32cd32")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func resultTable(p engine.Params, result *engine.Result) string {
	steady := "no"
	if result.SteadyState {
		steady = fmt.Sprintf("since generation %d", result.SteadyGeneration)
	}
	var total engine.Counts
	for _, c := range result.Counts {
		total.Births += c.Births
		total.Deaths += c.Deaths
		total.RadiationDeaths += c.RadiationDeaths
		total.Mutations += c.Mutations
	}
	t := newTable("", "value").Rows(
		[]string{"variant", p.Variant.String()},
		[]string{"seed", fmt.Sprint(p.Seed)},
		[]string{"generations", fmt.Sprint(result.Generations)},
		[]string{"steady state", steady},
		[]string{"population", fmt.Sprint(result.Stats.Population)},
		[]string{"mean lonely", fmt.Sprintf("%.3f", result.Stats.MeanLonely)},
		[]string{"mean born", fmt.Sprintf("%.3f", result.Stats.MeanBorn)},
		[]string{"mean crowded", fmt.Sprintf("%.3f", result.Stats.MeanCrowded)},
		[]string{"mean damage", fmt.Sprintf("%.3f", result.Stats.MeanDamage)},
		[]string{"births", fmt.Sprint(total.Births)},
		[]string{"deaths", fmt.Sprint(total.Deaths)},
		[]string{"radiation deaths", fmt.Sprint(total.RadiationDeaths)},
		[]string{"mutations", fmt.Sprint(total.Mutations)},
	)
	return t.String()
}

func runsTable(runs []*store.Run) string {
	t := newTable("id", "owner", "created", "variant", "generations", "steady", "population", "born")
	for _, run := range runs {
		steady := "-"
		if run.SteadyState {
			steady = fmt.Sprint(run.SteadyGeneration)
		}
		t.Row(
			run.Id,
			run.Owner,
			run.Created.Local().Format("2006-01-02 15:04"),
			run.Params.Variant.String(),
			fmt.Sprint(run.Generations),
			steady,
			fmt.Sprint(run.Stats.Population),
			fmt.Sprintf("%.2f", run.Stats.MeanBorn),
		)
	}
	return t.String()
}
