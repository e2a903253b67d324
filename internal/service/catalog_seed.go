package service

import "noslimites/api/internal/model"

// seedEntry is the compact authoring form of the catalog content.
type seedEntry struct {
	name        string
	description string
}

// defaultCatalog builds the shipped French catalog with content-derived IDs
// and sort orders matching authoring order.
func defaultCatalog() []model.LimitCategory {
	type seedSub struct {
		name   string
		limits []seedEntry
	}
	type seedCat struct {
		name string
		subs []seedSub
	}

	src := []seedCat{
		{
			name: "Communication",
			subs: []seedSub{
				{
					name: "Au quotidien",
					limits: []seedEntry{
						{"Messages pendant le travail", "Échanger des messages pendant les heures de travail."},
						{"Appels quotidiens", "S'appeler au moins une fois par jour."},
						{"Partage de localisation", "Partager sa position en continu avec l'autre."},
						{"Temps de réponse", "Répondre aux messages dans la journée."},
					},
				},
				{
					name: "Sujets sensibles",
					limits: []seedEntry{
						{"Parler des ex", "Évoquer ses anciennes relations."},
						{"Parler d'argent", "Discuter ouvertement de ses finances."},
						{"Parler de santé", "Partager les informations liées à sa santé."},
					},
				},
			},
		},
		{
			name: "Vie sociale",
			subs: []seedSub{
				{
					name: "Sorties",
					limits: []seedEntry{
						{"Sorties séparées", "Sortir chacun de son côté sans l'autre."},
						{"Soirées tardives", "Rentrer après minuit sans prévenir."},
						{"Voyages sans l'autre", "Partir en voyage seul ou avec des amis."},
					},
				},
				{
					name: "Entourage",
					limits: []seedEntry{
						{"Amitiés avec des ex", "Rester ami avec un ou une ex."},
						{"Présentation à la famille", "Rencontrer la famille de l'autre."},
						{"Nouvelles amitiés", "Se faire de nouveaux amis sans les présenter."},
					},
				},
			},
		},
		{
			name: "Vie numérique",
			subs: []seedSub{
				{
					name: "Réseaux sociaux",
					limits: []seedEntry{
						{"Photos de couple en ligne", "Publier des photos du couple sur les réseaux."},
						{"Statut de couple affiché", "Afficher publiquement la relation."},
						{"Interactions avec des inconnus", "Échanger en ligne avec des personnes inconnues."},
					},
				},
				{
					name: "Vie privée",
					limits: []seedEntry{
						{"Téléphones déverrouillés", "Laisser l'autre accéder à son téléphone."},
						{"Mots de passe partagés", "Partager ses mots de passe personnels."},
						{"Historique privé", "Garder son historique de navigation pour soi."},
					},
				},
			},
		},
		{
			name: "Intimité",
			subs: []seedSub{
				{
					name: "Gestes et affection",
					limits: []seedEntry{
						{"Gestes affectueux en public", "Se tenir la main ou s'embrasser en public."},
						{"Moments sans contact", "Respecter les moments où l'autre veut de l'espace."},
						{"Dormir séparément", "Faire chambre à part certaines nuits."},
					},
				},
				{
					name: "Engagement",
					limits: []seedEntry{
						{"Exclusivité", "Relation exclusive entre les deux partenaires."},
						{"Vivre ensemble", "Emménager ensemble à terme."},
						{"Projets à long terme", "Construire des projets communs sur la durée."},
					},
				},
			},
		},
	}

	categories := make([]model.LimitCategory, 0, len(src))
	for ci, cat := range src {
		category := model.LimitCategory{
			ID:        CatalogID(cat.name),
			Name:      cat.name,
			SortOrder: ci + 1,
		}
		for si, sub := range cat.subs {
			subcategory := model.LimitSubcategory{
				ID:         CatalogID(cat.name, sub.name),
				CategoryID: category.ID,
				Name:       sub.name,
				SortOrder:  si + 1,
			}
			for li, limit := range sub.limits {
				description := limit.description
				subcategory.Limits = append(subcategory.Limits, model.Limit{
					ID:            CatalogID(cat.name, sub.name, limit.name),
					SubcategoryID: subcategory.ID,
					Name:          limit.name,
					Description:   &description,
					SortOrder:     li + 1,
				})
			}
			category.Subcategories = append(category.Subcategories, subcategory)
		}
		categories = append(categories, category)
	}
	return categories
}
