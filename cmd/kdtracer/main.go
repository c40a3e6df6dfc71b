// Command kdtracer builds a k-d tree over a CS350 binary mesh and prints
// debug information about it.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/saiko-tech/kdtree-tracer/pkg/cs350"
	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer"
)

func main() {
	app := &cli.App{
		Name:  "kdtracer",
		Usage: "inspect SAH k-d trees built over CS350 binary meshes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "mesh file in CS350 binary format",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "max-depth",
				Aliases: []string{"d"},
				Usage:   "maximum tree depth, 0 for unlimited",
			},
			&cli.IntFlag{
				Name:    "min-triangles",
				Aliases: []string{"m"},
				Value:   1,
				Usage:   "make a leaf when a node holds this many or fewer triangles",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "dump",
				Usage:  "print the tree, one node per line",
				Action: runDump,
			},
			{
				Name:   "graph",
				Usage:  "print the tree as a Graphviz digraph",
				Action: runGraph,
			},
			{
				Name:  "stats",
				Usage: "trace random rays and compare against brute force",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "rays",
						Aliases: []string{"r"},
						Value:   100,
						Usage:   "number of rays to trace",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Value: 1,
						Usage: "random seed for ray generation",
					},
				},
				Action: runStats,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildTree(c *cli.Context) ([]kdtracer.Triangle, *kdtracer.Tree, error) {
	data, err := cs350.LoadBinary(c.String("input"))
	if err != nil {
		return nil, nil, err
	}

	soup := data.TriangleSoup()
	if len(soup) == 0 {
		return nil, nil, errors.Errorf("mesh %q contains no triangles", c.String("input"))
	}

	triangles := make([]kdtracer.Triangle, len(soup))
	for i, tri := range soup {
		triangles[i] = kdtracer.Triangle(tri)
	}

	cfg := kdtracer.DefaultConfig()
	cfg.MaxDepth = c.Int("max-depth")
	cfg.MinTriangles = c.Int("min-triangles")

	return triangles, kdtracer.Build(triangles, cfg), nil
}

func runDump(c *cli.Context) error {
	_, tree, err := buildTree(c)
	if err != nil {
		return err
	}

	return tree.Dump(os.Stdout)
}

func runGraph(c *cli.Context) error {
	_, tree, err := buildTree(c)
	if err != nil {
		return err
	}

	return tree.DumpGraph(os.Stdout)
}

func runStats(c *cli.Context) error {
	triangles, tree, err := buildTree(c)
	if err != nil {
		return err
	}

	var (
		rng     = rand.New(rand.NewSource(c.Int64("seed")))
		rays    = c.Int("rays")
		center  = tree.AABBs()[0].Center()
		radius  = tree.AABBs()[0].Max.Sub(center).Len() * 2
		tested  int
		visited int
		hits    int
	)

	for i := 0; i < rays; i++ {
		ray := randomRay(rng, center, radius)

		var stats kdtracer.DebugStats
		if tree.GetClosest(triangles, ray, &stats).Hit() {
			hits++
		}

		tested += len(stats.TestedTriangles)
		visited += len(stats.TraversedNodes)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"triangles", strconv.Itoa(len(triangles))})
	table.Append([]string{"nodes", strconv.Itoa(len(tree.Nodes()))})
	table.Append([]string{"height", strconv.Itoa(tree.Height())})
	table.Append([]string{"rays", strconv.Itoa(rays)})
	table.Append([]string{"hits", strconv.Itoa(hits)})
	table.Append([]string{"avg triangles tested", fmt.Sprintf("%.1f", float64(tested)/float64(rays))})
	table.Append([]string{"avg nodes traversed", fmt.Sprintf("%.1f", float64(visited)/float64(rays))})
	table.Append([]string{"brute force tests", strconv.Itoa(len(triangles))})
	table.Render()

	return nil
}

// randomRay aims from a random point on a sphere around the mesh roughly at
// its center.
func randomRay(rng *rand.Rand, center mgl32.Vec3, radius float32) kdtracer.Ray {
	var dir mgl32.Vec3
	for dir.Len() == 0 {
		dir = mgl32.Vec3{
			float32(rng.Float64()*2 - 1),
			float32(rng.Float64()*2 - 1),
			float32(rng.Float64()*2 - 1),
		}
	}
	dir = dir.Normalize()

	origin := center.Add(dir.Mul(radius))
	jitter := mgl32.Vec3{
		float32(rng.Float64()-0.5) * radius * 0.1,
		float32(rng.Float64()-0.5) * radius * 0.1,
		float32(rng.Float64()-0.5) * radius * 0.1,
	}

	return kdtracer.Ray{
		Origin:    origin,
		Direction: center.Add(jitter).Sub(origin),
	}
}
