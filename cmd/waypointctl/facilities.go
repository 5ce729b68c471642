package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/waypoint/internal/places"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/types"
)

func newFacilitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facilities",
		Short: "Manage the facilities used to name report locations",
	}
	cmd.AddCommand(newFacilitiesAddCmd(), newFacilitiesImportCmd(), newFacilitiesNearCmd())
	return cmd
}

func newFacilitiesAddCmd() *cobra.Command {
	var f store.Facility
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register one facility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := addFacilities(cmd, st, []store.Facility{f})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d facility\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.ID, "id", "", "facility id (generated when empty)")
	cmd.Flags().StringVar(&f.Name, "name", "", "display name")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "facility kind, e.g. shipper or truck_stop")
	cmd.Flags().Float64Var(&f.Coordinates.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.Coordinates.Longitude, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

// facilityFile is the YAML layout accepted by "facilities import".
type facilityFile struct {
	Facilities []struct {
		ID        string  `yaml:"id"`
		Name      string  `yaml:"name"`
		Kind      string  `yaml:"kind"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	} `yaml:"facilities"`
}

func newFacilitiesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Register facilities from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			var file facilityFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			batch := make([]store.Facility, 0, len(file.Facilities))
			for _, f := range file.Facilities {
				batch = append(batch, store.Facility{
					ID:          f.ID,
					Name:        f.Name,
					Kind:        f.Kind,
					Coordinates: types.Coordinates{Latitude: f.Latitude, Longitude: f.Longitude},
				})
			}

			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := addFacilities(cmd, st, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d facilities\n", n)
			return nil
		},
	}
}

func addFacilities(cmd *cobra.Command, fs store.FacilityStore, batch []store.Facility) (int, error) {
	for i, f := range batch {
		if f.Name == "" {
			return i, fmt.Errorf("facility %d: name is required", i)
		}
		if err := f.Coordinates.Validate(); err != nil {
			return i, fmt.Errorf("facility %q: %w", f.Name, err)
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if err := fs.AddFacility(cmd.Context(), f); err != nil {
			return i, fmt.Errorf("facility %q: %w", f.Name, err)
		}
	}
	return len(batch), nil
}

func newFacilitiesNearCmd() *cobra.Command {
	var (
		at    types.Coordinates
		miles float64
	)
	cmd := &cobra.Command{
		Use:   "near",
		Short: "List facilities around a point and the name a report there would get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := at.Validate(); err != nil {
				return err
			}
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			found, err := st.FacilitiesIn(cmd.Context(), places.BoundingBox(at, miles))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tLAT\tLON")
			for _, f := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.5f\t%.5f\n", f.ID, f.Name, f.Kind, f.Coordinates.Latitude, f.Coordinates.Longitude)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			place, err := places.NewFacilityResolver(st).Resolve(cmd.Context(), at)
			if err != nil {
				return err
			}
			if name, ok := place.Name(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "\nreports here are labelled %q\n", name)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&at.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&at.Longitude, "lon", 0, "longitude")
	cmd.Flags().Float64Var(&miles, "miles", 5, "search radius in miles")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
