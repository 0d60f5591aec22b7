package app

import (
	"context"

	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/models"
)

// DemoTemplates are the measurement templates installed by Seed.
var DemoTemplates = []models.TemplateRule{
	{Genre: "シャツ", RawFields: "肩幅,胸幅,着丈,袖丈"},
	{Genre: "Tシャツ", RawFields: "肩幅,身幅,着丈,袖丈"},
	{Genre: "パンツ", RawFields: "ウエスト,股上,股下,ワタリ,裾幅"},
	{Genre: "スカート", RawFields: "ウエスト,ヒップ,総丈"},
	{Genre: "ジャケット", RawFields: "肩幅,胸幅,着丈,袖丈（肩から）"},
}

var demoListings = []models.ImportRow{
	{ManagementID: "SH-1001", Brand: "Acme", Genre: "シャツ", ProductName: "AB123 オックスフォードシャツ", Color: "白", Sizes: "S,M,L"},
	{ManagementID: "SH-1002", Brand: "Acme", Genre: "シャツ", ProductName: "AB124 リネンシャツ", Color: "紺", Sizes: "M、L"},
	{ManagementID: "TS-2001", Brand: "Beta", Genre: "Tシャツ", ProductName: "BT001 ポケットT", Color: "黒", Sizes: "S,M,L,XL"},
	{ManagementID: "PT-3001", Brand: "Beta", Genre: "パンツ", ProductName: "CH550 チノパンツ", Color: "ベージュ", Sizes: "28,30,32"},
	{ManagementID: "SK-4001", Brand: "Gamma", Genre: "スカート", ProductName: "GS10 フレアスカート", Color: "グレー", Sizes: "S,M"},
	{ManagementID: "JK-5001", Brand: "Gamma", Genre: "ジャケット", ProductName: "GJ77 テーラードジャケット", Color: "チャコール", Sizes: "M,L"},
}

func demoCatalogEntries() []models.CatalogEntry { return catalog.Expand(demoListings) }

// Seed creates the tables and installs demo templates, demo catalog rows
// and an admin user. It can be run repeatedly.
func Seed(ctx context.Context, a *App, adminUser, adminPassword string) error {
	if err := a.Ensure(ctx); err != nil {
		return err
	}
	if err := a.Templates.Upsert(ctx, DemoTemplates); err != nil {
		return err
	}
	if _, err := a.Catalog.Import(ctx, demoCatalogEntries()); err != nil {
		return err
	}
	_, err := a.Users.Upsert(ctx, adminUser, adminPassword, models.RoleAdmin)
	return err
}
