package odds

import "strconv"

// Animal is one of the 25 classic groups. Each group owns four
// consecutive dezenas; dezena 00 counts as 100 and belongs to group 25.
type Animal struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Dezenas []string `json:"dezenas"`
}

var animals = []Animal{
	{1, "Avestruz", []string{"01", "02", "03", "04"}},
	{2, "Águia", []string{"05", "06", "07", "08"}},
	{3, "Burro", []string{"09", "10", "11", "12"}},
	{4, "Borboleta", []string{"13", "14", "15", "16"}},
	{5, "Cachorro", []string{"17", "18", "19", "20"}},
	{6, "Cabra", []string{"21", "22", "23", "24"}},
	{7, "Carneiro", []string{"25", "26", "27", "28"}},
	{8, "Camelo", []string{"29", "30", "31", "32"}},
	{9, "Cobra", []string{"33", "34", "35", "36"}},
	{10, "Coelho", []string{"37", "38", "39", "40"}},
	{11, "Cavalo", []string{"41", "42", "43", "44"}},
	{12, "Elefante", []string{"45", "46", "47", "48"}},
	{13, "Galo", []string{"49", "50", "51", "52"}},
	{14, "Gato", []string{"53", "54", "55", "56"}},
	{15, "Jacaré", []string{"57", "58", "59", "60"}},
	{16, "Leão", []string{"61", "62", "63", "64"}},
	{17, "Macaco", []string{"65", "66", "67", "68"}},
	{18, "Porco", []string{"69", "70", "71", "72"}},
	{19, "Pavão", []string{"73", "74", "75", "76"}},
	{20, "Peru", []string{"77", "78", "79", "80"}},
	{21, "Touro", []string{"81", "82", "83", "84"}},
	{22, "Tigre", []string{"85", "86", "87", "88"}},
	{23, "Urso", []string{"89", "90", "91", "92"}},
	{24, "Veado", []string{"93", "94", "95", "96"}},
	{25, "Vaca", []string{"97", "98", "99", "00"}},
}

// Animals returns the full animal table
func Animals() []Animal {
	return animals
}

// AnimalByID looks up an animal group
func AnimalByID(id int) (Animal, bool) {
	if id < 1 || id > len(animals) {
		return Animal{}, false
	}
	return animals[id-1], true
}

// GroupOfNumber returns the animal group owning the dezena (last two
// digits) of a result number, or 0 if the number is malformed.
func GroupOfNumber(number string) int {
	if len(number) < 2 {
		return 0
	}
	dezena, err := strconv.Atoi(number[len(number)-2:])
	if err != nil {
		return 0
	}
	if dezena == 0 {
		dezena = 100
	}
	return (dezena + 3) / 4
}
