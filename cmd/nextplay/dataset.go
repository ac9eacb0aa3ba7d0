package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/rushteam/nextplay/engine"
)

var trainingHeader = []string{"user_id", "game_id", "content_score", "collab_score", "popularity_score", "liked"}

var datasetCommand = &cobra.Command{
	Use:   "dataset",
	Short: "Export the training dataset of the fusion classifier as CSV",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		rows, err := a.engine.BuildTrainingSet(cmd.Context())
		if err != nil {
			return err
		}
		if outputPath == "-" {
			return writeTrainingCSV(cmd.OutOrStdout(), rows)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return errors.Trace(err)
		}
		if err := writeTrainingCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), outputPath)
		return nil
	}),
}

// writeTrainingCSV 写出带表头的训练集，liked 为 0/1。
func writeTrainingCSV(w io.Writer, rows []engine.TrainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trainingHeader); err != nil {
		return errors.Trace(err)
	}
	for _, r := range rows {
		liked := "0"
		if r.Liked {
			liked = "1"
		}
		record := []string{
			r.UserID,
			strconv.FormatInt(r.ItemID, 10),
			strconv.FormatFloat(r.ContentScore, 'g', -1, 64),
			strconv.FormatFloat(r.CollabScore, 'g', -1, 64),
			strconv.FormatFloat(r.PopularityScore, 'g', -1, 64),
			liked,
		}
		if err := cw.Write(record); err != nil {
			return errors.Trace(err)
		}
	}
	cw.Flush()
	return errors.Trace(cw.Error())
}
