package tmx

import "encoding/xml"

// The *XML types mirror the file grammar; Decode converts them into the
// exported model.

type mapXML struct {
	Version     string        `xml:"version,attr"`
	Class       string        `xml:"class,attr"`
	Orientation string        `xml:"orientation,attr"`
	Width       int           `xml:"width,attr"`
	Height      int           `xml:"height,attr"`
	TileWidth   int           `xml:"tilewidth,attr"`
	TileHeight  int           `xml:"tileheight,attr"`
	Infinite    bool          `xml:"infinite,attr"`
	Properties  []propertyXML `xml:"properties>property"`
	Tilesets    []tilesetXML  `xml:"tileset"`
	Layers      []layerXML    `xml:",any"` // layer, objectgroup, imagelayer and group, in document order.
}

type tilesetXML struct {
	FirstGID   GID           `xml:"firstgid,attr"`
	Source     string        `xml:"source,attr"`
	Name       string        `xml:"name,attr"`
	TileWidth  int           `xml:"tilewidth,attr"`
	TileHeight int           `xml:"tileheight,attr"`
	Spacing    int           `xml:"spacing,attr"`
	Margin     int           `xml:"margin,attr"`
	TileCount  int           `xml:"tilecount,attr"`
	Columns    int           `xml:"columns,attr"`
	Image      *imageXML     `xml:"image"`
	Tiles      []tileXML     `xml:"tile"`
	Properties []propertyXML `xml:"properties>property"`
}

type tileXML struct {
	ID         TileID        `xml:"id,attr"`
	Type       string        `xml:"type,attr"`
	Class      string        `xml:"class,attr"`
	Image      *imageXML     `xml:"image"`
	Properties []propertyXML `xml:"properties>property"`
}

type imageXML struct {
	Source string    `xml:"source,attr"`
	Width  int       `xml:"width,attr"`
	Height int       `xml:"height,attr"`
	Data   *struct{} `xml:"data"`
}

type layerXML struct {
	XMLName    xml.Name
	ID         int           `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Width      int           `xml:"width,attr"`
	Height     int           `xml:"height,attr"`
	OffsetX    float64       `xml:"offsetx,attr"`
	OffsetY    float64       `xml:"offsety,attr"`
	Opacity    string        `xml:"opacity,attr"`
	Visible    string        `xml:"visible,attr"`
	Properties []propertyXML `xml:"properties>property"`
	Data       *dataXML      `xml:"data"`
	Objects    []objectXML   `xml:"object"`
}

type dataXML struct {
	Encoding    string        `xml:"encoding,attr"`
	Compression string        `xml:"compression,attr"`
	RawData     []byte        `xml:",innerxml"`
	DataTiles   []dataTileXML `xml:"tile"` // Only used when layer encoding is xml
	Chunks      []chunkXML    `xml:"chunk"`
}

type dataTileXML struct {
	GID GID `xml:"gid,attr"`
}

type chunkXML struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type objectXML struct {
	ID         int           `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Type       string        `xml:"type,attr"`
	Class      string        `xml:"class,attr"`
	X          float64       `xml:"x,attr"`
	Y          float64       `xml:"y,attr"`
	Width      float64       `xml:"width,attr"`
	Height     float64       `xml:"height,attr"`
	Visible    string        `xml:"visible,attr"`
	Properties []propertyXML `xml:"properties>property"`
}

type propertyXML struct {
	Name       string        `xml:"name,attr"`
	Type       string        `xml:"type,attr"`
	Value      string        `xml:"value,attr"`
	Text       string        `xml:",chardata"`
	Properties []propertyXML `xml:"properties>property"`
}
