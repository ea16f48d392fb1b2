package equipment

import (
	"fmt"
	"regexp"
	"strings"
)

// typePrefixes mapea cada tipo de instrumento al prefijo de su código.
var typePrefixes = map[string]string{
	"Paquímetro":                        "PAQ",
	"Micrômetro Externo":                "MIC",
	"Micrômetro Interno":                "MIC",
	"Micrômetro de Profundidade":        "MIC-P",
	"Régua Milimetrada":                 "REG",
	"Trena Metálica":                    "TRE",
	"Calibrador de Folga":               "CAL-F",
	"Calibrador de Rosca":               "CAL-R",
	"Calibrador Tipo Anel":              "CAL-A",
	"Calibrador Tipo Tampão":            "CAL-T",
	"Pino Padrão":                       "PIN",
	"Balança Analítica":                 "BAL-A",
	"Balança de Precisão":               "BAL-P",
	"Balança Industrial":                "BAL-I",
	"Peso Padrão":                       "PES",
	"Cronômetro":                        "CRO",
	"Tacômetro":                         "TAC",
	"Estroboscópio":                     "EST",
	"Termômetro Digital":                "TER-D",
	"Termômetro Infravermelho":          "TER-I",
	"Termômetro de Mercúrio":            "TER-M",
	"Termopar":                          "TER-P",
	"Pirômetro":                         "PIR",
	"Sensor RTD":                        "RTD",
	"Sensor PT100":                      "PT100",
	"Manômetro":                         "MAN",
	"Vacuômetro":                        "VAC",
	"Transdutor de Pressão":             "TRA-P",
	"Medidor de Vazão":                  "MED-V",
	"Medidor de Coluna de Líquido":      "MED-C",
	"Projetor de Perfil":                "PRO",
	"Microscópio de Medição":            "MIC-M",
	"Câmera de Inspeção":                "CAM",
	"Rugosímetro":                       "RUG",
	"Durômetro":                         "DUR",
	"Refratômetro":                      "REF",
	"Torquímetro":                       "TOR",
	"Medidor de Dureza Rockwell":        "DUR-R",
	"Medidor de Dureza Brinell":         "DUR-B",
	"Medidor de Dureza Vickers":         "DUR-V",
	"Medidor de Espessura Ultrassônico": "MED-U",
	"Medidor de Espessura de Pintura":   "MED-P",
	"Medidor de pH":                     "PH",
	"Data Logger de Temperatura":        "LOG-T",
	"Data Logger de Umidade":            "LOG-U",
	"Colorímetro":                       "COL",
	"Espectrofotômetro":                 "ESP",
}

// Sectors son los setores de la planta.
var Sectors = []string{
	"Injetoras",
	"Ferramentaria",
	"Controle da Qualidade",
	"Point Matic",
	"Montagem 1 (M1)",
	"Almoxarifado 1 (ALM 1)",
	"Almoxarifado 2 (ALM 2)",
	"Depósito de Produtos Acabados (DPA)",
	"Manutenção",
}

var codeSuffix = regexp.MustCompile(`^\d{3}$`)

// PrefixFor devuelve el prefijo del código para un tipo.
func PrefixFor(equipmentType string) (string, bool) {
	p, ok := typePrefixes[strings.TrimSpace(equipmentType)]
	return p, ok
}

// Types devuelve los tipos conocidos.
func Types() []string {
	out := make([]string, 0, len(typePrefixes))
	for t := range typePrefixes {
		out = append(out, t)
	}
	return out
}

// ValidateCode exige <PREFIXO>-NNN según el tipo.
func ValidateCode(equipmentType, code string) error {
	prefix, ok := PrefixFor(equipmentType)
	if !ok {
		return ErrUnknownType
	}
	rest, found := strings.CutPrefix(code, prefix+"-")
	if !found || !codeSuffix.MatchString(rest) {
		return fmt.Errorf("%w: expected %s-XXX (e.g. %s-001)", ErrInvalidCode, prefix, prefix)
	}
	return nil
}
