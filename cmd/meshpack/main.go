package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblok/pinch/core"
	"github.com/devblok/pinch/model"
	"github.com/devblok/pinch/utility/kar"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the archive, defaults to the current user")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	dstFile         = flag.String("f", "meshes.kar", "Archive file")
	plane           = flag.Bool("plane", false, "Pack the built-in textured plane")
	extent          = flag.String("extent", "0.5,0.5", "Extent of the built-in plane")
	list            = flag.Bool("l", false, "List meshes in the archive")
	extract         = flag.String("e", "", "Print the vertices of the given mesh")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration(".env")
	if err != nil {
		log.Fatal(err)
	}
	logger, err := core.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *list && *extract != "":
		logger.Fatal("only one operation at a time")
	case *list:
		err = listMeshes(*dstFile)
	case *extract != "":
		err = printMesh(*dstFile, *extract)
	case *plane || flag.NArg() > 0:
		err = packMeshes(logger, *dstFile, flag.Args())
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("meshpack failed")
	}
}

func loadMeshes(files []string) ([]*model.Mesh, error) {
	var meshes []*model.Mesh
	if *plane {
		ext, err := parseExtent(*extent)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, model.NewPlane(ext, glm.Vec3{}))
	}
	for _, path := range files {
		contents, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mesh, err := model.ImportColladaObject(contents)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		if mesh.Name() == "" {
			mesh = model.NewMesh(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), mesh.Vertices())
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func packMeshes(logger log.FieldLogger, dst string, files []string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	meshes, err := loadMeshes(files)
	if err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	builder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	var bar *progressbar.ProgressBar
	if !*silent {
		bar = progressbar.Default(int64(len(meshes)), "packing")
	}
	for _, mesh := range meshes {
		if err := model.PackMesh(builder, mesh); err != nil {
			return err
		}
		logger.WithFields(log.Fields{
			"mesh":     mesh.Name(),
			"vertices": len(mesh.Vertices()),
		}).Debug("mesh packed")
		if bar != nil {
			bar.Add(1)
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	written, err := builder.WriteTo(out)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"file": dst, "bytes": written, "meshes": len(meshes)}).Info("archive written")
	return nil
}

func listMeshes(path string) error {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, entry := range ar.Names() {
		name, ok := model.MeshName(entry)
		if !ok {
			continue
		}
		e, err := ar.Stat(entry)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d vertices\t%d bytes\t%d compressed\n",
			name, e.Size/model.VertexSize, e.Size, e.CompressedSize)
	}
	return nil
}

func printMesh(path, name string) error {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return err
	}
	defer ar.Close()

	mesh, err := model.LoadMesh(ar, name)
	if err != nil {
		return err
	}
	for idx, v := range mesh.Vertices() {
		fmt.Printf("%d\tpos %v %v %v\tuv %v %v\n", idx, v.Pos.X(), v.Pos.Y(), v.Pos.Z(), v.TexCoord.X(), v.TexCoord.Y())
	}
	return nil
}

func parseExtent(raw string) (glm.Vec2, error) {
	var ext glm.Vec2
	if _, err := fmt.Sscanf(raw, "%f,%f", &ext[0], &ext[1]); err != nil {
		return glm.Vec2{}, errors.Wrapf(err, "extent %q", raw)
	}
	return ext, nil
}
